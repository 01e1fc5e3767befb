// Package trajectory turns waypoints into time-parameterized trajectories.
//
// Generation runs in three stages: a quintic Hermite spline is fitted through
// the waypoints and subdivided into path points; each point is bounded by the
// config and every Constraint; a forward and a backward pass then bound the
// velocity by the acceleration limit, and time is assigned assuming constant
// acceleration between points. A returned Trajectory is always feasible.
package trajectory
