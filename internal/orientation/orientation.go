package orientation

// Code is an EXIF orientation value. Valid codes are 1 through 8; anything
// else behaves like Normal.
type Code int

// EXIF orientation codes.
const (
	Normal         Code = 1
	FlipHorizontal Code = 2
	Rotate180      Code = 3
	FlipVertical   Code = 4
	Transpose      Code = 5
	Rotate90       Code = 6
	Transverse     Code = 7
	Rotate270      Code = 8
)

// Transform is the geometric correction for an orientation code. Rotation is
// in degrees clockwise and is applied before the optional horizontal flip.
type Transform struct {
	Rotation       int
	FlipHorizontal bool
}

var transforms = map[Code]Transform{
	Normal:         {Rotation: 0},
	FlipHorizontal: {Rotation: 0, FlipHorizontal: true},
	Rotate180:      {Rotation: 180},
	FlipVertical:   {Rotation: 180, FlipHorizontal: true},
	Transpose:      {Rotation: 90, FlipHorizontal: true},
	Rotate90:       {Rotation: 90},
	Transverse:     {Rotation: -90, FlipHorizontal: true},
	Rotate270:      {Rotation: -90},
}

// Transform returns the correction for c. Unknown codes map to the identity.
func (c Code) Transform() Transform {
	if t, ok := transforms[c]; ok {
		return t
	}
	return Transform{}
}

// SwapsDimensions reports whether correcting c exchanges width and height.
func (c Code) SwapsDimensions() bool {
	return c.Transform().SwapsDimensions()
}

// Dimensions returns the display size of a stored width x height image.
func (c Code) Dimensions(width, height int) (int, int) {
	if c.SwapsDimensions() {
		return height, width
	}
	return width, height
}

// Valid reports whether c is one of the eight EXIF codes.
func (c Code) Valid() bool {
	return c >= Normal && c <= Rotate270
}

// IsIdentity reports whether t leaves pixels untouched.
func (t Transform) IsIdentity() bool {
	return t.Rotation == 0 && !t.FlipHorizontal
}

// SwapsDimensions reports whether t turns the image a quarter turn.
func (t Transform) SwapsDimensions() bool {
	return t.Rotation == 90 || t.Rotation == -90
}

var names = map[Code]string{
	Normal:         "normal",
	FlipHorizontal: "flip-horizontal",
	Rotate180:      "rotate-180",
	FlipVertical:   "flip-vertical",
	Transpose:      "transpose",
	Rotate90:       "rotate-90",
	Transverse:     "transverse",
	Rotate270:      "rotate-270",
}

func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return "unknown"
}
