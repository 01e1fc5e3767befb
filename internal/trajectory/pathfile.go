package trajectory

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/san-kum/drivekit/internal/geometry"
)

// LoadPath reads waypoints from a CSV path file whose first four columns are
// X, Y, Tangent X and Tangent Y. A header row is skipped. Headings follow the
// tangents and every waypoint is expressed in the frame of the first, so the
// path starts at (0, 0) facing +x.
func LoadPath(r io.Reader) ([]Waypoint, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read path csv")
	}

	var waypoints []Waypoint
	var origin r2.Point
	var originHeading float64
	for line, rec := range records {
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}
		if line == 0 && isHeader(rec) {
			continue
		}
		if len(rec) < 4 {
			return nil, errors.Errorf("line %d: want at least 4 columns, got %d", line+1, len(rec))
		}
		var vals [4]float64
		for i := range vals {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d column %d", line+1, i+1)
			}
			vals[i] = v
		}
		if vals[2] == 0 && vals[3] == 0 {
			return nil, errors.Errorf("line %d: zero tangent", line+1)
		}
		heading := math.Atan2(vals[3], vals[2])
		if len(waypoints) == 0 {
			origin, originHeading = r2.Point{X: vals[0], Y: vals[1]}, heading
		}
		offset := geometry.Rotate(r2.Point{X: vals[0], Y: vals[1]}.Sub(origin), -originHeading)
		waypoints = append(waypoints, NewWaypoint(offset.X, offset.Y, geometry.NormalizeAngle(heading-originHeading)))
	}
	if len(waypoints) < 2 {
		return nil, errors.Wrapf(ErrGeometry, "path file has %d waypoints", len(waypoints))
	}
	return waypoints, nil
}

func isHeader(rec []string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
	return err != nil
}

// ParseWaypoint builds a waypoint from x, y and heading in degrees.
func ParseWaypoint(x, y, headingDeg float64) Waypoint {
	return Waypoint{Pose: geometry.NewPose(x, y, geometry.Radians(headingDeg))}
}
