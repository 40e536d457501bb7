// Package orientation maps EXIF orientation codes to the geometric
// correction that makes stored pixels appear upright.
//
// The same Code drives both the metadata path (Dimensions swaps width and
// height for the four quarter-turn codes) and the pixel path (Apply), so
// enumerated sizes always match what the render pipelines produce.
//
//	Code  Rotation  Flip        Swaps
//	1     0         no          no
//	2     0         horizontal  no
//	3     180       no          no
//	4     180       horizontal  no
//	5     90        horizontal  yes
//	6     90        no          yes
//	7     -90       horizontal  yes
//	8     -90       no          yes
//
// Rotations are clockwise and the flip is applied after the rotation.
// Unknown codes are the identity.
package orientation
