// Package permission holds the access rules applied to API requests.
//
// A Policy answers two questions: may the caller perform this request at all,
// and may the caller perform it on a particular object. Policies compose with
// Any and All.
package permission

import (
	"net/http"

	"reviewhub/internal/microservices/http-api/models"
)

// Request is the part of an HTTP request a policy looks at.
// User is nil for anonymous callers.
type Request struct {
	Method string
	User   *models.User
}

// Authored is implemented by objects that have an owning user.
type Authored interface {
	AuthorUserID() string
}

type Policy interface {
	HasPermission(r Request) bool
	HasObjectPermission(r Request, obj Authored) bool
}

// IsSafeMethod reports whether method never mutates state.
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func (r Request) authenticated() bool {
	return r.User != nil
}

func (r Request) safe() bool {
	return IsSafeMethod(r.Method)
}

type ownerOrReadOnly struct{}

// OwnerOrReadOnly allows reads to anyone and writes to the object's author.
var OwnerOrReadOnly Policy = ownerOrReadOnly{}

func (ownerOrReadOnly) HasPermission(r Request) bool {
	return r.safe() || r.authenticated()
}

func (ownerOrReadOnly) HasObjectPermission(r Request, obj Authored) bool {
	if r.safe() {
		return true
	}
	return r.authenticated() && obj != nil && obj.AuthorUserID() == r.User.ID
}

type moderatorOrReadOnly struct{}

// ModeratorOrReadOnly allows reads to anyone and writes to moderators.
var ModeratorOrReadOnly Policy = moderatorOrReadOnly{}

func (moderatorOrReadOnly) HasPermission(r Request) bool {
	return r.safe() || (r.authenticated() && r.User.IsModerator())
}

func (p moderatorOrReadOnly) HasObjectPermission(r Request, _ Authored) bool {
	return p.HasPermission(r)
}

type adminOnly struct{}

// AdminOnly requires an administrator for every method, reads included.
var AdminOnly Policy = adminOnly{}

func (adminOnly) HasPermission(r Request) bool {
	return r.authenticated() && r.User.HasAdminRights()
}

func (p adminOnly) HasObjectPermission(r Request, _ Authored) bool {
	return p.HasPermission(r)
}

type adminOrReadOnly struct{}

// AdminOrReadOnly allows reads to anyone and writes to administrators.
var AdminOrReadOnly Policy = adminOrReadOnly{}

func (adminOrReadOnly) HasPermission(r Request) bool {
	return r.safe() || (r.authenticated() && r.User.HasAdminRights())
}

func (p adminOrReadOnly) HasObjectPermission(r Request, _ Authored) bool {
	return p.HasPermission(r)
}

type authenticatedOrReadOnly struct{}

var AuthenticatedOrReadOnly Policy = authenticatedOrReadOnly{}

func (authenticatedOrReadOnly) HasPermission(r Request) bool {
	return r.safe() || r.authenticated()
}

func (p authenticatedOrReadOnly) HasObjectPermission(r Request, _ Authored) bool {
	return p.HasPermission(r)
}

type authenticated struct{}

var Authenticated Policy = authenticated{}

func (authenticated) HasPermission(r Request) bool {
	return r.authenticated()
}

func (authenticated) HasObjectPermission(r Request, _ Authored) bool {
	return r.authenticated()
}

type anyOf []Policy

// Any grants access when at least one policy does. Any() denies everything.
func Any(policies ...Policy) Policy {
	return anyOf(policies)
}

func (a anyOf) HasPermission(r Request) bool {
	for _, p := range a {
		if p.HasPermission(r) {
			return true
		}
	}
	return false
}

func (a anyOf) HasObjectPermission(r Request, obj Authored) bool {
	for _, p := range a {
		if p.HasPermission(r) && p.HasObjectPermission(r, obj) {
			return true
		}
	}
	return false
}

type allOf []Policy

// All grants access only when every policy does. All() allows everything.
func All(policies ...Policy) Policy {
	return allOf(policies)
}

func (a allOf) HasPermission(r Request) bool {
	for _, p := range a {
		if !p.HasPermission(r) {
			return false
		}
	}
	return true
}

func (a allOf) HasObjectPermission(r Request, obj Authored) bool {
	for _, p := range a {
		if !p.HasObjectPermission(r, obj) {
			return false
		}
	}
	return true
}

// ReviewPolicy guards reviews and comments: reads are public, writes need
// the author, a moderator or an administrator.
var ReviewPolicy = All(
	AuthenticatedOrReadOnly,
	Any(OwnerOrReadOnly, AdminOnly, ModeratorOrReadOnly),
)
