package trajectory_test

import (
	"errors"
	"math"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/drivekit/internal/trajectory"
)

var _ = Describe("LoadPath", func() {
	It("rebases every waypoint into the frame of the first", func() {
		wps, err := trajectory.LoadPath(strings.NewReader("X,Y,Tangent X,Tangent Y\n1,1,0,1\n1,3,0,1\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(wps).To(HaveLen(2))

		Expect(wps[0].Pose.X).To(BeNumerically("~", 0, 1e-12))
		Expect(wps[0].Pose.Y).To(BeNumerically("~", 0, 1e-12))
		Expect(wps[0].Pose.Heading).To(BeNumerically("~", 0, 1e-12))

		Expect(wps[1].Pose.X).To(BeNumerically("~", 2, 1e-12))
		Expect(wps[1].Pose.Y).To(BeNumerically("~", 0, 1e-12))
		Expect(wps[1].Pose.Heading).To(BeNumerically("~", 0, 1e-12))
	})

	It("keeps turns relative to the start heading", func() {
		wps, err := trajectory.LoadPath(strings.NewReader("2,0,-1,0\n0,0,-1,0\n-1,1,0,1\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(wps).To(HaveLen(3))

		Expect(wps[1].Pose.X).To(BeNumerically("~", 2, 1e-12))
		Expect(wps[1].Pose.Y).To(BeNumerically("~", 0, 1e-12))
		Expect(wps[2].Pose.X).To(BeNumerically("~", 3, 1e-12))
		Expect(wps[2].Pose.Y).To(BeNumerically("~", -1, 1e-12))
		Expect(wps[2].Pose.Heading).To(BeNumerically("~", -math.Pi/2, 1e-12))
	})

	It("rejects bad rows", func() {
		_, err := trajectory.LoadPath(strings.NewReader("0,0,0,0\n1,0,1,0\n"))
		Expect(err).To(HaveOccurred())

		_, err = trajectory.LoadPath(strings.NewReader("0,0,1\n"))
		Expect(err).To(HaveOccurred())

		_, err = trajectory.LoadPath(strings.NewReader("X,Y,Tangent X,Tangent Y\n0,0,1,0\n"))
		Expect(errors.Is(err, trajectory.ErrGeometry)).To(BeTrue())
	})
})
