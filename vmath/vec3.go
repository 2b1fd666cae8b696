package vmath

import "math"

// Vec3 is a 3D vector, used throughout the renderer for both points and
// directions: ray origins/directions, surface normals, and radiance/color
// intermediates before they're written into a core.Color.
type Vec3 struct {
	X, Y, Z float32
}

var (
	Vec3Zero  = Vec3{0, 0, 0}
	Vec3One   = Vec3{1, 1, 1}
	Vec3Up    = Vec3{0, 1, 0}
	Vec3Down  = Vec3{0, -1, 0}
	Vec3Right = Vec3{1, 0, 0}
	Vec3Left  = Vec3{-1, 0, 0}
	Vec3Front = Vec3{0, 0, 1}
	Vec3Back  = Vec3{0, 0, -1}
)

func NewVec3(x, y, z float32) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

func (v Vec3) Mul(scalar float32) Vec3 {
	return Vec3{X: v.X * scalar, Y: v.Y * scalar, Z: v.Z * scalar}
}

func (v Vec3) MulVec(other Vec3) Vec3 {
	return Vec3{X: v.X * other.X, Y: v.Y * other.Y, Z: v.Z * other.Z}
}

func (v Vec3) Div(scalar float32) Vec3 {
	return v.Mul(1.0 / scalar)
}

func (v Vec3) Dot(other Vec3) float32 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

func (v Vec3) LengthSqr() float32 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

func (v Vec3) Normalize() Vec3 {
	length := v.Length()
	if length > 0 {
		return v.Mul(1.0 / length)
	}
	return v
}

func (v Vec3) Distance(other Vec3) float32 {
	return v.Sub(other).Length()
}

func (v Vec3) Lerp(other Vec3, t float32) Vec3 {
	return v.Add(other.Sub(v).Mul(t))
}

func (v Vec3) Negate() Vec3 {
	return Vec3{-v.X, -v.Y, -v.Z}
}

func (v Vec3) ToVec4(w float32) Vec4 {
	return Vec4{X: v.X, Y: v.Y, Z: v.Z, W: w}
}

// Reflect mirrors v about normal n (n assumed unit length, pointing against v).
func (v Vec3) Reflect(n Vec3) Vec3 {
	return v.Sub(n.Mul(2 * v.Dot(n)))
}

// Refract bends v through a surface with normal n (pointing against v) and
// relative index of refraction eta = ior_from/ior_to. The second return
// value is false on total internal reflection, in which case the caller
// should fall back to Reflect.
func (v Vec3) Refract(n Vec3, eta float32) (Vec3, bool) {
	cosI := -v.Dot(n)
	sin2T := eta * eta * (1 - cosI*cosI)
	if sin2T > 1 {
		return Vec3{}, false
	}
	cosT := float32(math.Sqrt(float64(1 - sin2T)))
	return v.Mul(eta).Add(n.Mul(eta*cosI - cosT)), true
}

// Schlick approximates the Fresnel reflectance of a surface with the given
// indices of refraction at the given angle of incidence (cosTheta = N·V).
func Schlick(cosTheta, iorFrom, iorTo float32) float32 {
	r0 := (iorFrom - iorTo) / (iorFrom + iorTo)
	r0 *= r0
	x := 1 - cosTheta
	return r0 + (1-r0)*x*x*x*x*x
}

// Basis builds an orthonormal tangent/bitangent pair for v (treated as a
// unit normal), using the branchless construction from Duff et al.
// "Building an Orthonormal Basis, Revisited" to avoid the grazing-angle
// instability of a naive cross product. Used to orient hemisphere and disk
// samples around a surface normal or mirror direction.
func (v Vec3) Basis() (t, b Vec3) {
	sign := float32(1)
	if v.Z < 0 {
		sign = -1
	}
	a := -1 / (sign + v.Z)
	c := v.X * v.Y * a
	t = Vec3{X: 1 + sign*v.X*v.X*a, Y: sign * c, Z: -sign * v.X}
	b = Vec3{X: c, Y: sign + v.Y*v.Y*a, Z: -v.Y}
	return
}

// CosineSampleHemisphere importance-samples a direction about v (treated as
// a unit normal) with PDF cos(theta)/pi, the Lambertian BRDF's natural
// sampling distribution.
func (v Vec3) CosineSampleHemisphere(u1, u2 float32) Vec3 {
	r := float32(math.Sqrt(float64(u1)))
	theta := 2 * math.Pi * float64(u2)
	x := r * float32(math.Cos(theta))
	y := r * float32(math.Sin(theta))
	z := float32(math.Sqrt(float64(1 - u1)))

	t, b := v.Basis()
	return t.Mul(x).Add(b.Mul(y)).Add(v.Mul(z))
}

// UniformSampleSphere samples a direction uniformly over the full sphere,
// used for isotropic fog-scatter bounces.
func UniformSampleSphere(u1, u2 float32) Vec3 {
	z := 1 - 2*u1
	r := float32(math.Sqrt(math.Max(0, float64(1-z*z))))
	phi := 2 * math.Pi * float64(u2)
	return Vec3{X: r * float32(math.Cos(phi)), Y: r * float32(math.Sin(phi)), Z: z}
}
