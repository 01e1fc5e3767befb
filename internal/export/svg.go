// Package export renders stored runs as standalone SVG documents.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/golang/geo/r2"

	"github.com/san-kum/drivekit/internal/sim"
)

var ErrNoPath = errors.New("export: need at least two samples")

const (
	referenceStroke = "#4a90d9"
	drivenStroke    = "#00cc66"
	estimateStroke  = "#e0a030"
)

// frame maps field metres onto an SVG viewport with +y up and equal scale.
type frame struct {
	bounds        r2.Rect
	scale         float64
	width, height float64
	offX, offY    float64
}

func newFrame(width, height int, points ...[]r2.Point) frame {
	bounds := r2.EmptyRect()
	for _, pts := range points {
		for _, p := range pts {
			bounds = bounds.AddPoint(p)
		}
	}
	size := bounds.Size()
	margin := 0.05 * max(size.X, size.Y, 0.1)
	bounds = bounds.ExpandedByMargin(margin)
	size = bounds.Size()

	f := frame{bounds: bounds, width: float64(width), height: float64(height)}
	f.scale = min(f.width/size.X, f.height/size.Y)
	f.offX = (f.width - size.X*f.scale) / 2
	f.offY = (f.height - size.Y*f.scale) / 2
	return f
}

func (f frame) project(p r2.Point) (float64, float64) {
	x := f.offX + (p.X-f.bounds.X.Lo)*f.scale
	y := f.height - f.offY - (p.Y-f.bounds.Y.Lo)*f.scale
	return x, y
}

func (f frame) polyline(sb *strings.Builder, pts []r2.Point, stroke string, dashed bool) {
	if len(pts) < 2 {
		return
	}
	sb.WriteString(`<polyline fill="none" stroke="` + stroke + `" stroke-width="2"`)
	if dashed {
		sb.WriteString(` stroke-dasharray="6 4"`)
	}
	sb.WriteString(` points="`)
	for i, p := range pts {
		x, y := f.project(p)
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(sb, "%.1f,%.1f", x, y)
	}
	sb.WriteString("\"/>\n")
}

func (f frame) marker(sb *strings.Builder, p r2.Point, fill string) {
	x, y := f.project(p)
	fmt.Fprintf(sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"4\" fill=\"%s\"/>\n", x, y, fill)
}

// RunSVG draws the reference path dashed, the true driven path solid and the
// odometry estimate thin, with start and end markers on the driven path.
func RunSVG(w io.Writer, samples []sim.Sample, width, height int, title string) error {
	if len(samples) < 2 {
		return ErrNoPath
	}
	ref := make([]r2.Point, len(samples))
	driven := make([]r2.Point, len(samples))
	est := make([]r2.Point, len(samples))
	for i, s := range samples {
		ref[i] = s.Target.Pose.Translation()
		driven[i] = s.Pose.Translation()
		est[i] = s.Estimate.Translation()
	}

	f := newFrame(width, height, ref, driven, est)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
	if title != "" {
		fmt.Fprintf(&sb, "<text x=\"8\" y=\"18\" fill=\"#cccccc\" font-family=\"monospace\" font-size=\"14\">%s</text>\n", escape(title))
	}

	f.polyline(&sb, ref, referenceStroke, true)
	f.polyline(&sb, est, estimateStroke, false)
	f.polyline(&sb, driven, drivenStroke, false)
	f.marker(&sb, driven[0], "#ffffff")
	f.marker(&sb, driven[len(driven)-1], "#ff4444")

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
