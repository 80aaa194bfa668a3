package prettyorm_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gentledepp/prettyorm"
	"github.com/gentledepp/prettyorm/logger"
	"github.com/gentledepp/prettyorm/schema"
)

type account struct {
	ID        int64
	Name      string
	OwnerID   int64
	CreatedAt time.Time
}

func accountMapping(t testing.TB) *schema.Mapping[account] {
	t.Helper()
	b := schema.NewBuilder[account]("Account", schema.AllImplicit|schema.AutoIncPK)
	schema.Integer(b, "Id",
		func(a *account) int64 { return a.ID },
		func(a *account, v int64) { a.ID = v })
	b.String("Name",
		func(a *account) string { return a.Name },
		func(a *account, v string) { a.Name = v }).Size(50)
	schema.Integer(b, "OwnerId",
		func(a *account) int64 { return a.OwnerID },
		func(a *account, v int64) { a.OwnerID = v })
	b.Time("CreatedAt",
		func(a *account) time.Time { return a.CreatedAt },
		func(a *account, v time.Time) { a.CreatedAt = v })
	m, err := b.Build()
	require.NoError(t, err)
	return m
}

type note struct {
	ID   int64
	Body *string
}

func noteMapping(t testing.TB) *schema.Mapping[note] {
	t.Helper()
	b := schema.NewBuilder[note]("Note", schema.ImplicitPK|schema.AutoIncPK)
	schema.Integer(b, "Id",
		func(n *note) int64 { return n.ID },
		func(n *note, v int64) { n.ID = v })
	b.NullString("Body",
		func(n *note) *string { return n.Body },
		func(n *note, v *string) { n.Body = v }).NotNull()
	m, err := b.Build()
	require.NoError(t, err)
	return m
}

func openTestDB(t testing.TB) *prettyorm.DB {
	t.Helper()
	db, err := prettyorm.Open(context.Background(), ":memory:", prettyorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func str(s string) *string { return &s }

func ident[T any](rec *T) T { return *rec }
