package trajectory_test

import (
	"math"

	"github.com/golang/geo/r2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/drivekit/internal/geometry"
	"github.com/san-kum/drivekit/internal/kinematics"
	"github.com/san-kum/drivekit/internal/trajectory"
)

func straight() []trajectory.Waypoint {
	return []trajectory.Waypoint{
		trajectory.NewWaypoint(0, 0, 0),
		trajectory.NewWaypoint(1, 0, 0),
	}
}

func sCurve() []trajectory.Waypoint {
	return []trajectory.Waypoint{
		trajectory.NewWaypoint(0, 0, 0),
		trajectory.NewWaypoint(1.5, 1, math.Pi/4),
		trajectory.NewWaypoint(3, 1.5, 0),
		trajectory.NewWaypoint(4, 0.5, -math.Pi/2),
	}
}

var _ = Describe("Generate", func() {
	var cfg trajectory.Config

	BeforeEach(func() {
		cfg = trajectory.NewConfig(2, 1)
	})

	Context("straight line with a triangular profile", func() {
		var traj *trajectory.Trajectory

		BeforeEach(func() {
			var err error
			traj, err = trajectory.Generate(straight(), cfg)
			Expect(err).NotTo(HaveOccurred())
		})

		It("peaks at 1 m/s at the midpoint", func() {
			peak, at := 0.0, geometry.Pose2D{}
			for _, s := range traj.States() {
				if s.Velocity > peak {
					peak, at = s.Velocity, s.Pose
				}
			}
			Expect(peak).To(BeNumerically("~", 1.0, 1e-6))
			Expect(at.X).To(BeNumerically("~", 0.5, 1e-6))
		})

		It("takes two seconds", func() {
			Expect(traj.TotalTime()).To(BeNumerically("~", 2.0, 1e-6))
		})

		It("starts and ends at rest", func() {
			Expect(traj.Sample(0).Velocity).To(BeNumerically("~", 0, 1e-9))
			Expect(traj.Sample(traj.TotalTime()).Velocity).To(BeNumerically("~", 0, 1e-9))
			Expect(traj.FinalPose().X).To(BeNumerically("~", 1, 1e-9))
		})

		It("samples kinematically between states", func() {
			s := traj.Sample(0.5)
			Expect(s.Velocity).To(BeNumerically("~", 0.5, 1e-6))
			Expect(s.Pose.X).To(BeNumerically("~", 0.125, 1e-3))
			Expect(traj.Sample(1.5).Velocity).To(BeNumerically("~", 0.5, 1e-6))
		})

		It("clamps sample time", func() {
			Expect(traj.Sample(-3)).To(Equal(traj.States()[0]))
			Expect(traj.Sample(99)).To(Equal(traj.States()[traj.Len()-1]))
		})
	})

	Context("curved multi-waypoint path", func() {
		constraints := []trajectory.Constraint{
			trajectory.CentripetalAcceleration{Max: 0.8},
			trajectory.AccelerationLimit{Max: 0.7},
		}

		It("has strictly increasing time from 0", func() {
			traj, err := trajectory.Generate(sCurve(), cfg, constraints...)
			Expect(err).NotTo(HaveOccurred())
			states := traj.States()
			Expect(states[0].Time).To(Equal(0.0))
			for i := 1; i < len(states); i++ {
				Expect(states[i].Time).To(BeNumerically(">", states[i-1].Time))
			}
		})

		It("respects max velocity and every constraint bound", func() {
			traj, err := trajectory.Generate(sCurve(), cfg, constraints...)
			Expect(err).NotTo(HaveOccurred())
			for _, s := range traj.States() {
				Expect(math.Abs(s.Velocity)).To(BeNumerically("<=", cfg.MaxVelocity+1e-9))
				p := trajectory.PathPoint{Pose: s.Pose, Curvature: s.Curvature}
				for _, c := range constraints {
					Expect(math.Abs(s.Velocity)).To(BeNumerically("<=", c.MaxVelocity(p)+1e-9))
				}
				Expect(math.Abs(s.Acceleration)).To(BeNumerically("<=", 0.7+1e-6))
			}
			for t := 0.0; t < traj.TotalTime(); t += 0.001 {
				s := traj.Sample(t)
				Expect(math.Abs(s.Velocity)).To(BeNumerically("<=", cfg.MaxVelocity+1e-9))
				p := trajectory.PathPoint{Pose: s.Pose, Curvature: s.Curvature}
				for _, c := range constraints {
					Expect(math.Abs(s.Velocity)).To(BeNumerically("<=", c.MaxVelocity(p)+1e-9))
				}
			}
		})

		It("passes through every waypoint", func() {
			traj, err := trajectory.Generate(sCurve(), cfg)
			Expect(err).NotTo(HaveOccurred())
			for _, w := range sCurve() {
				best := math.Inf(1)
				for _, s := range traj.States() {
					best = math.Min(best, s.Pose.Distance(w.Pose))
				}
				Expect(best).To(BeNumerically("<", 1e-9))
			}
		})

		It("honors a waypoint velocity hint", func() {
			wps := sCurve()
			wps[1].MaxVelocity = 0.3
			traj, err := trajectory.Generate(wps, cfg)
			Expect(err).NotTo(HaveOccurred())
			for _, s := range traj.States() {
				if s.Pose.Distance(wps[1].Pose) < 1e-9 {
					Expect(s.Velocity).To(BeNumerically("<=", 0.3+1e-9))
				}
			}
		})
	})

	Context("drivetrain constraints", func() {
		It("keeps differential wheel speeds in range", func() {
			diff, err := kinematics.NewDifferential(0.6)
			Expect(err).NotTo(HaveOccurred())
			limit := trajectory.DifferentialDriveLimit{Kinematics: diff, MaxWheelSpeed: 1.2}
			traj, err := trajectory.Generate(sCurve(), cfg, limit)
			Expect(err).NotTo(HaveOccurred())
			for _, s := range traj.States() {
				w := diff.ToWheelSpeeds(geometry.ChassisSpeed{Vx: s.Velocity, Omega: s.Velocity * s.Curvature})
				Expect(math.Abs(w.LeftVelocity)).To(BeNumerically("<=", 1.2+1e-9))
				Expect(math.Abs(w.RightVelocity)).To(BeNumerically("<=", 1.2+1e-9))
			}
		})

		It("limits swerve modules", func() {
			sw, err := kinematics.NewSwerveRectangular(0.5, 0.5)
			Expect(err).NotTo(HaveOccurred())
			limit := trajectory.SwerveDriveLimit{Kinematics: sw, MaxModuleSpeed: 1.0}
			traj, err := trajectory.Generate(sCurve(), cfg, limit)
			Expect(err).NotTo(HaveOccurred())
			for _, s := range traj.States() {
				st := sw.ToModuleStates(geometry.ChassisSpeed{Vx: s.Velocity, Omega: s.Velocity * s.Curvature})
				for _, m := range st.Modules {
					Expect(m.Velocity).To(BeNumerically("<=", 1.0+1e-9))
				}
			}
		})

		It("keeps sampled states between stored ones under the curvature bounds", func() {
			diff, err := kinematics.NewDifferential(0.6)
			Expect(err).NotTo(HaveOccurred())
			limits := []trajectory.Constraint{
				trajectory.CentripetalAcceleration{Max: 0.5},
				trajectory.DifferentialDriveLimit{Kinematics: diff, MaxWheelSpeed: 1.5},
			}
			hook := []trajectory.Waypoint{
				trajectory.NewWaypoint(0, 0, 0),
				trajectory.NewWaypoint(2, 2, math.Pi/2),
				trajectory.NewWaypoint(0, 4, math.Pi),
			}
			traj, err := trajectory.Generate(hook, cfg, limits...)
			Expect(err).NotTo(HaveOccurred())

			worst := 0.0
			for t := 0.0; t < traj.TotalTime(); t += 0.001 {
				s := traj.Sample(t)
				p := trajectory.PathPoint{Pose: s.Pose, Curvature: s.Curvature}
				for _, c := range limits {
					worst = math.Max(worst, math.Abs(s.Velocity)-c.MaxVelocity(p))
				}
			}
			Expect(worst).To(BeNumerically("<=", 1e-9))
		})

		It("applies a region constraint only inside its rectangle", func() {
			region := trajectory.NewRegion(r2.Point{X: 0.4, Y: -1}, r2.Point{X: 0.6, Y: 1}, trajectory.MaxVelocity{Max: 0.25})
			traj, err := trajectory.Generate(straight(), cfg, region)
			Expect(err).NotTo(HaveOccurred())
			for _, s := range traj.States() {
				if s.Pose.X >= 0.4 && s.Pose.X <= 0.6 {
					Expect(s.Velocity).To(BeNumerically("<=", 0.25+1e-9))
				}
			}
			Expect(traj.TotalTime()).To(BeNumerically(">", 2.0))
		})
	})

	Context("reversed", func() {
		It("reports negative velocity and keeps the robot heading", func() {
			cfg.Reversed = true
			wps := []trajectory.Waypoint{
				trajectory.NewWaypoint(0, 0, 0),
				trajectory.NewWaypoint(-1, 0, 0),
			}
			traj, err := trajectory.Generate(wps, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.TotalTime()).To(BeNumerically("~", 2.0, 1e-6))
			mid := traj.Sample(1.0)
			Expect(mid.Velocity).To(BeNumerically("~", -1.0, 1e-6))
			Expect(mid.Pose.X).To(BeNumerically("~", -0.5, 1e-6))
			Expect(math.Abs(geometry.AngleDelta(0, mid.Pose.Heading))).To(BeNumerically("<", 1e-6))
		})
	})

	Context("failures", func() {
		It("rejects identical consecutive waypoints", func() {
			wps := []trajectory.Waypoint{
				trajectory.NewWaypoint(0, 0, 0),
				trajectory.NewWaypoint(1, 1, 0),
				trajectory.NewWaypoint(1, 1, 0),
			}
			traj, err := trajectory.Generate(wps, cfg)
			Expect(traj).To(BeNil())
			Expect(err).To(MatchError(trajectory.ErrGeometry))
			var gerr *trajectory.GenerationError
			Expect(err).To(BeAssignableToTypeOf(gerr))
			Expect(err.(*trajectory.GenerationError).Index).To(Equal(2))
		})

		It("rejects a single waypoint", func() {
			_, err := trajectory.Generate(straight()[:1], cfg)
			Expect(err).To(MatchError(trajectory.ErrGeometry))
		})

		DescribeTable("rejects infeasible configs",
			func(mutate func(*trajectory.Config)) {
				mutate(&cfg)
				traj, err := trajectory.Generate(straight(), cfg)
				Expect(traj).To(BeNil())
				Expect(err).To(MatchError(trajectory.ErrInfeasible))
			},
			Entry("start above max", func(c *trajectory.Config) { c.StartVelocity = 3 }),
			Entry("end above max", func(c *trajectory.Config) { c.EndVelocity = 2.5 }),
			Entry("negative start", func(c *trajectory.Config) { c.StartVelocity = -1 }),
			Entry("zero acceleration", func(c *trajectory.Config) { c.MaxAcceleration = 0 }),
			Entry("zero max velocity", func(c *trajectory.Config) { c.MaxVelocity = 0 }),
			Entry("NaN limit", func(c *trajectory.Config) { c.MaxVelocity = math.NaN() }),
		)

		It("rejects a constraint that stops the robot mid-path", func() {
			region := trajectory.NewRegion(r2.Point{X: 0.3, Y: -1}, r2.Point{X: 0.7, Y: 1}, trajectory.MaxVelocity{Max: 0})
			_, err := trajectory.Generate(straight(), cfg, region)
			Expect(err).To(MatchError(trajectory.ErrInfeasible))
		})
	})
})
