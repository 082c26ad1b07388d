package buffer

// Option is a functional option for configuring a Buffer.
type Option func(*Buffer)

// WithNormalizeNewlines converts CRLF and CR to LF on every write.
func WithNormalizeNewlines(enable bool) Option {
	return func(b *Buffer) {
		b.normalize = enable
	}
}

// WithMaxLength limits the buffer length in runes. Text written past the
// limit is truncated. Zero means unlimited.
func WithMaxLength(n int) Option {
	return func(b *Buffer) {
		if n >= 0 {
			b.maxLen = n
		}
	}
}
