// Package megno propagates variational shadow particles and turns their
// growth into the MEGNO chaos indicator <Y> and a Lyapunov exponent.
//
// A regular orbit settles at <Y> = 2, while a chaotic one grows like
// lambda*t/2. [Accelerations] must run after the real forces and before
// the second half step, with the system synchronized in time.
package megno
