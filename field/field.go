package field

// Field is a read/write buffer pair holding one physical quantity.
// Passes sample Read and render into Write; the caller swaps afterwards.
type Field struct {
	read  *Buffer
	write *Buffer
}

// New allocates a zeroed field pair.
func New(w, h int, format Format, filter Filter) *Field {
	return &Field{
		read:  NewBuffer(w, h, format, filter),
		write: NewBuffer(w, h, format, filter),
	}
}

// Read returns the buffer holding the current contents.
func (f *Field) Read() *Buffer { return f.read }

// Write returns the buffer the next pass renders into.
func (f *Field) Write() *Buffer { return f.write }

// Swap exchanges the read and write roles without copying.
func (f *Field) Swap() {
	f.read, f.write = f.write, f.read
}

// Width returns the grid width in texels.
func (f *Field) Width() int { return f.read.Width }

// Height returns the grid height in texels.
func (f *Field) Height() int { return f.read.Height }

// Format returns the storage format.
func (f *Field) Format() Format { return f.read.Format }

// TexelSize returns (1/width, 1/height).
func (f *Field) TexelSize() (float32, float32) { return f.read.TexelSize() }

// Resize resamples the current contents into a buffer of the new size and
// replaces the write buffer with a fresh one. The old buffers are released.
// Returns false if the size is unchanged.
func (f *Field) Resize(w, h int) bool {
	if w == f.Width() && h == f.Height() {
		return false
	}
	read := Resample(f.read, w, h)
	write := NewBuffer(read.Width, read.Height, f.read.Format, f.read.Filter)
	f.read.Release()
	f.write.Release()
	f.read, f.write = read, write
	return true
}

// Release frees both buffers.
func (f *Field) Release() {
	if f == nil {
		return
	}
	f.read.Release()
	f.write.Release()
}
