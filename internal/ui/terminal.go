package ui

import (
	"fmt"
	"io"

	"github.com/gookit/color"

	"github.com/keriat/voiceline/internal/app/session"
)

// Renderer prints the current affordance to a terminal. Purely a function
// of the snapshot; user intent flows back through the command loop, not
// through the renderer.
type Renderer struct {
	out io.Writer
}

func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

func (r *Renderer) Render(s session.Snapshot) {
	if s.Notice != "" {
		fmt.Fprintln(r.out, color.Warn.Sprint("! "+s.Notice), color.Gray.Sprint("(press d to dismiss)"))
	}

	switch View(s.Permission, s.Connection) {
	case AffordanceRequestPermission:
		fmt.Fprintln(r.out, color.Cyan.Sprint("▸ Press enter to request microphone access"))
	case AffordanceStart:
		fmt.Fprintln(r.out, color.Green.Sprint("▸ Press enter to start a conversation"))
	case AffordanceConnecting:
		fmt.Fprintln(r.out, color.Gray.Sprint("… connecting"))
	case AffordanceLive:
		fmt.Fprintln(r.out, color.Green.Sprint("● live"), color.Gray.Sprint("(press q to leave)"))
	case AffordanceError:
		reason := "connection failed"
		if s.Err != nil {
			reason = s.Err.Error()
		}
		fmt.Fprintln(r.out, color.Red.Sprint("✗ "+reason), color.Gray.Sprint("(press enter to retry, d to dismiss)"))
	}
}
