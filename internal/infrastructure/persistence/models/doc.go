// Package models holds the gorm persistence models. Each model converts to
// and from its domain aggregate with ToDomain / FromDomain; the schema itself
// is owned by the SQL migrations.
package models
