package receipt

// Command is an opaque printer control sequence. The layout code only knows
// where a command goes, never what bytes it contains.
type Command string

// Dialect groups the control sequences for one printer protocol. Swapping the
// dialect changes the emitted bytes without touching column layout.
type Dialect struct {
	Name        string
	Init        Command
	AlignLeft   Command
	AlignCenter Command
	BoldOn      Command
	BoldOff     Command
	DoubleOn    Command
	DoubleOff   Command
	Cut         Command
	NewLine     string

	// Raster renders a monochrome bitmap (true = dot). Nil means the
	// protocol cannot print images and they are skipped.
	Raster func(bitmap [][]bool) Command
}

// ESCPOS is the Epson ESC/POS command set used by the counter and kitchen printers.
var ESCPOS = Dialect{
	Name:        "escpos",
	Init:        "\x1b\x40",
	AlignLeft:   "\x1b\x61\x00",
	AlignCenter: "\x1b\x61\x01",
	BoldOn:      "\x1b\x45\x01",
	BoldOff:     "\x1b\x45\x00",
	DoubleOn:    "\x1d\x21\x11",
	DoubleOff:   "\x1d\x21\x00",
	Cut:         "\x1d\x56\x00",
	NewLine:     "\n",
	Raster:      escposRaster,
}

// Plain emits no control codes at all; used for previews and plain-text printers.
var Plain = Dialect{
	Name:    "plain",
	NewLine: "\n",
}

// DialectByName resolves a configured dialect, defaulting to ESC/POS.
func DialectByName(name string) Dialect {
	if name == Plain.Name {
		return Plain
	}
	return ESCPOS
}

// escposRaster encodes GS v 0 (print raster bit image, normal density).
// Rows are packed MSB first, one bit per dot.
func escposRaster(bitmap [][]bool) Command {
	height := len(bitmap)
	if height == 0 || len(bitmap[0]) == 0 {
		return ""
	}
	width := len(bitmap[0])
	bytesPerRow := (width + 7) / 8

	buf := make([]byte, 0, 8+bytesPerRow*height)
	buf = append(buf, 0x1d, 0x76, 0x30, 0x00,
		byte(bytesPerRow%256), byte(bytesPerRow/256),
		byte(height%256), byte(height/256))

	for _, row := range bitmap {
		packed := make([]byte, bytesPerRow)
		for x, dot := range row {
			if dot && x < width {
				packed[x/8] |= 0x80 >> uint(x%8)
			}
		}
		buf = append(buf, packed...)
	}
	return Command(buf)
}
