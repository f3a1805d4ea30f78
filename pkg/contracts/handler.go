// Package contracts holds the interfaces the app package composes.
package contracts

import "github.com/julienschmidt/httprouter"

// Handler mounts a group of endpoints on the shared router.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// RoutesFunc lets a plain function act as a Handler.
type RoutesFunc func(*httprouter.Router)

func (f RoutesFunc) RegisterRoutes(r *httprouter.Router) { f(r) }
