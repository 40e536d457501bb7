// Package library exposes the photo collection: chunked enumeration of
// library items and orientation-aware thumbnail and full-photo retrieval.
//
// # Enumeration
//
// Enumerate runs one query against the metadata store and returns an
// iter.Seq2 of chunks. Each item's width and height are swapped when its
// EXIF orientation turns the image a quarter turn, so the reported size
// matches what Thumbnail and Photo return. A chunk is emitted when it holds
// ChunkingPolicy.ItemsPerChunk items or has been open for
// ChunkingPolicy.MaxChunkDuration, whichever comes first; the last chunk is
// always emitted and marked IsLast.
//
//	for chunk, err := range svc.Enumerate(ctx, policy, library.Filter{}) {
//	    if err != nil {
//	        return err
//	    }
//	    send(chunk)
//	}
//
// Per-item orientation failures never abort an enumeration; the item keeps
// its stored dimensions.
//
// # Photo references
//
// Every item carries an id of the form "<numericId>;<nativePath>". Callers
// treat it as opaque; ParseRef recovers both parts and retrieval requires
// that they still name the same indexed photo.
package library
