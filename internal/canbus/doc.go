// Package canbus maps wheel setpoints and wheel feedback onto classic CAN
// frames, one frame per wheel or module, and sends them over SocketCAN.
//
// Setpoint frame (ID = SetpointBase + index, 6 bytes, little endian):
//
//	bits  0-15  velocity   int16  mm/s
//	bits 16-31  angle      int16  0.01 deg (swerve only, 0 for differential)
//	bits 32-47  voltage    int16  mV
//
// Feedback frame (ID = FeedbackBase + index, 8 bytes, little endian):
//
//	bits  0-31  distance   int32  0.1 mm
//	bits 32-47  velocity   int16  mm/s
//	bits 48-63  angle      int16  0.01 deg
//
// Values outside the representable range saturate.
package canbus
