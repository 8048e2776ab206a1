package contracts

import "github.com/julienschmidt/httprouter"

// Handler is implemented by every HTTP surface (bookings, availability,
// caregiver directory, health) so the application can mount them on one router.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}
