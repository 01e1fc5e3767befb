package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/san-kum/drivekit/internal/sim"
	"github.com/san-kum/drivekit/internal/trajectory"
)

var sampleHeader = []string{
	"time",
	"x", "y", "heading",
	"est_x", "est_y", "est_heading",
	"ref_x", "ref_y", "ref_heading", "ref_velocity", "ref_curvature",
	"vx", "vy", "omega",
}

var fixedColumns = len(sampleHeader)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// WriteSamplesCSV writes one row per sample followed by one column per wheel
// velocity setpoint.
func WriteSamplesCSV(out io.Writer, samples []sim.Sample) error {
	w := csv.NewWriter(out)

	numWheels := 0
	for _, s := range samples {
		if len(s.Wheels) > numWheels {
			numWheels = len(s.Wheels)
		}
	}

	header := append([]string{}, sampleHeader...)
	for i := 0; i < numWheels; i++ {
		header = append(header, fmt.Sprintf("w%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, s := range samples {
		row := []string{
			formatFloat(s.Time),
			formatFloat(s.Pose.X), formatFloat(s.Pose.Y), formatFloat(s.Pose.Heading),
			formatFloat(s.Estimate.X), formatFloat(s.Estimate.Y), formatFloat(s.Estimate.Heading),
			formatFloat(s.Target.Pose.X), formatFloat(s.Target.Pose.Y), formatFloat(s.Target.Pose.Heading),
			formatFloat(s.Target.Velocity), formatFloat(s.Target.Curvature),
			formatFloat(s.Command.Vx), formatFloat(s.Command.Vy), formatFloat(s.Command.Omega),
		}
		for i := 0; i < numWheels; i++ {
			v := 0.0
			if i < len(s.Wheels) {
				v = s.Wheels[i]
			}
			row = append(row, formatFloat(v))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// WriteTrajectoryCSV writes the timed states of traj.
func WriteTrajectoryCSV(out io.Writer, traj *trajectory.Trajectory) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"time", "x", "y", "heading", "velocity", "acceleration", "curvature"}); err != nil {
		return err
	}
	for _, s := range traj.States() {
		row := []string{
			formatFloat(s.Time),
			formatFloat(s.Pose.X), formatFloat(s.Pose.Y), formatFloat(s.Pose.Heading),
			formatFloat(s.Velocity), formatFloat(s.Acceleration), formatFloat(s.Curvature),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

type ExportData struct {
	Run     RunMetadata        `json:"run"`
	Samples []sim.Sample       `json:"samples"`
	Metrics map[string]float64 `json:"metrics"`
}

func WriteJSON(out io.Writer, meta RunMetadata, result *sim.Result) error {
	data := ExportData{
		Run:     meta,
		Samples: result.Samples,
		Metrics: result.Metrics,
	}
	data.Run.Steps = result.StepsTaken
	data.Run.Finished = result.Finished
	data.Run.Duration = result.Final().Time

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func WriteTrajectoryJSON(out io.Writer, traj *trajectory.Trajectory) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(traj.States())
}

// ExportFile writes to path, or to stdout when path is "-".
func ExportFile(path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
