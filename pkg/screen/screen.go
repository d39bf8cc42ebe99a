package screen

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"
)

const (
	Size = 128

	// gg's default face is 7px wide, so 18 columns fit across the panel.
	NumRows = 8
	NumCols = 18

	rowHeight = Size / NumRows

	frameBytes = Size * Size * 2
)

// Screen is an 8x18 text grid shown on the 128x128 RGB565 framebuffer.  Writes
// only update the grid; LoopUpdatingScreen pushes it to the device.
type Screen struct {
	lock sync.Mutex
	rows [NumRows][]rune
	row  int
	col  int

	// BattVolts, if set, is shown in the bottom-right corner.
	BattVolts func() (float32, error)
}

func New() *Screen {
	s := &Screen{}
	s.clearLocked()
	return s
}

func (s *Screen) Clear() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.clearLocked()
}

func (s *Screen) clearLocked() {
	for r := range s.rows {
		s.rows[r] = []rune(strings.Repeat(" ", NumCols))
	}
	s.row, s.col = 0, 0
}

// Print writes text at the cursor, wrapping at newlines.
func (s *Screen) Print(text string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.writeLocked(text)
}

// PrintAt moves the cursor and then prints.  Text past the right edge is
// dropped.
func (s *Screen) PrintAt(row, col int, text string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.row, s.col = row, col
	s.writeLocked(text)
}

func (s *Screen) writeLocked(text string) {
	for _, ch := range text {
		if ch == '\n' {
			s.row++
			s.col = 0
			continue
		}
		if s.row >= 0 && s.row < NumRows && s.col >= 0 && s.col < NumCols {
			s.rows[s.row][s.col] = ch
		}
		s.col++
	}
}

// Lines returns a copy of the grid with trailing blanks trimmed.
func (s *Screen) Lines() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	lines := make([]string, NumRows)
	for r := range s.rows {
		lines[r] = strings.TrimRight(string(s.rows[r]), " ")
	}
	return lines
}

// Render draws the current grid.
func (s *Screen) Render() image.Image {
	lines := s.Lines()

	dc := gg.NewContext(Size, Size)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetRGBA(1, 0.9, 0, 1)
	for r, line := range lines {
		dc.DrawString(line, 0, float64((r+1)*rowHeight-3))
	}

	if s.BattVolts != nil {
		if v, err := s.BattVolts(); err == nil {
			drawPowerBar(dc, float64(v))
		}
	}
	return dc.Image()
}

// LoopUpdatingScreen renders the grid to the framebuffer device until the
// context is cancelled, then blanks it.
func (s *Screen) LoopUpdatingScreen(ctx context.Context, device string) {
	f, err := os.OpenFile(device, os.O_RDWR, 0666)
	if err != nil {
		fmt.Println("Failed to open screen, ignoring:", err)
		return
	}
	defer f.Close()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			var blank [frameBytes]byte
			_ = writeFrame(f, blank[:])
			return
		case <-ticker.C:
		}
		if err := writeFrame(f, ToRGB565(s.Render())); err != nil {
			fmt.Println("Screen failure:", err)
			return
		}
	}
}

// ToRGB565 packs an image into the panel's native format.  The panel is
// mounted rotated, so image rows become framebuffer columns.
func ToRGB565(img image.Image) []byte {
	buf := make([]byte, frameBytes)
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			r, g, b, _ := img.At(x, y).RGBA() // 16-bit pre-multiplied

			rb := byte(r >> (16 - 5))
			gb := byte(g >> (16 - 6)) // Green has 6 bits
			bb := byte(b >> (16 - 5))

			off := (Size-1-y)*2 + x*Size*2
			buf[off+1] = (rb << 3) | (gb >> 3)
			buf[off] = bb | (gb << 5)
		}
	}
	return buf
}

func writeFrame(f *os.File, buf []byte) error {
	if _, err := f.Seek(0, 0); err != nil {
		return errors.Wrap(err, "failed to rewind framebuffer")
	}
	// The SPI framebuffer driver drops data if it's written too fast.
	for i := 0; i < Size; i++ {
		if _, err := f.Write(buf[i*Size*2 : (i+1)*Size*2]); err != nil {
			return errors.Wrap(err, "failed to write framebuffer")
		}
		time.Sleep(10 * time.Microsecond)
	}
	return nil
}

const (
	minCellVoltage = 3
	maxCellVoltage = 4.2
)

func drawPowerBar(dc *gg.Context, voltage float64) {
	var cellVoltage float64
	if voltage > 9 {
		// assume the 3-cell pack
		cellVoltage = voltage / 3
	} else {
		cellVoltage = voltage / 2
	}
	charge := (cellVoltage - minCellVoltage) / (maxCellVoltage - minCellVoltage)

	dc.Push()
	defer dc.Pop()
	if charge < 0.1 {
		dc.SetRGBA(1, 0.2, 0, 1)
	}
	dc.DrawString(fmt.Sprintf("%.1fv", voltage), Size-34, Size-3)
}

type dummyScreen struct{}

// Dummy returns a display that prints to stdout.
func Dummy() interface {
	Clear()
	Print(text string)
	PrintAt(row, col int, text string)
} {
	return dummyScreen{}
}

func (dummyScreen) Clear() {
	fmt.Println("SCREEN: clear")
}

func (dummyScreen) Print(text string) {
	fmt.Printf("SCREEN: %q\n", text)
}

func (dummyScreen) PrintAt(row, col int, text string) {
	fmt.Printf("SCREEN: (%d,%d) %q\n", row, col, text)
}
