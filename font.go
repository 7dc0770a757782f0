package shade

import (
	"fmt"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gomono"
)

// overlayFontSize is the point size used for draw_text and the frame-rate
// overlay.
const overlayFontSize = 18

var (
	fontOnce sync.Once
	fontFace text.Face
	fontErr  error
)

// overlayFace returns the process-wide monospace face, parsing the embedded
// font on first use. The face is initialized once and read-only afterwards.
func overlayFace() (text.Face, error) {
	fontOnce.Do(func() {
		source, err := text.NewFontSource(gomono.TTF)
		if err != nil {
			fontErr = fmt.Errorf("shade: parse embedded font: %w", err)
			return
		}
		fontFace = source.Face(overlayFontSize)
	})
	return fontFace, fontErr
}
