package control

// Vec3 is a 3-axis vector in body frame: X=roll, Y=pitch, Z=yaw.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{k * v.X, k * v.Y, k * v.Z}
}

// Measurement is one attitude sample from the estimator: absolute angles
// and body rotation rates, both in radians / radians per second.
type Measurement struct {
	Angle Vec3
	Rate  Vec3
}
