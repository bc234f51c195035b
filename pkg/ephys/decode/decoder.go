// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for raw and diff-encoded sample decoders
package decode

// Decoder decodes encoded frames to interleaved int32 samples
type Decoder interface {
	// Decode converts encoded data to interleaved samples
	Decode(data []byte) ([]int32, error)
}
