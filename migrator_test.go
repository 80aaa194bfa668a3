package prettyorm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gentledepp/prettyorm"
	"github.com/gentledepp/prettyorm/schema"
)

// accountV1 is the mapping of an older deploy: same table, fewer columns.
type accountV1 struct {
	ID   int64
	Name string
}

func accountV1Mapping(t testing.TB) *schema.Mapping[accountV1] {
	t.Helper()
	b := schema.NewBuilder[accountV1]("Account", schema.ImplicitPK|schema.AutoIncPK)
	schema.Integer(b, "Id",
		func(a *accountV1) int64 { return a.ID },
		func(a *accountV1, v int64) { a.ID = v })
	b.String("Name",
		func(a *accountV1) string { return a.Name },
		func(a *accountV1, v string) { a.Name = v }).Size(50)
	m, err := b.Build()
	require.NoError(t, err)
	return m
}

func TestPlanAddColumns(t *testing.T) {
	m := accountMapping(t)

	live := []prettyorm.ColumnInfo{
		{Name: "Id", PrimaryKey: true},
		{Name: "Name"},
	}

	missing := prettyorm.PlanAddColumns(m, live)
	require.Len(t, missing, 2)
	assert.Equal(t, "OwnerId", missing[0].Name)
	assert.Equal(t, "CreatedAt", missing[1].Name)
}

func TestPlanAddColumnsCaseInsensitive(t *testing.T) {
	m := accountMapping(t)

	live := []prettyorm.ColumnInfo{
		{Name: "ID"}, {Name: "NAME"}, {Name: "ownerid"}, {Name: "createdat"},
	}

	assert.Empty(t, prettyorm.PlanAddColumns(m, live))
}

func TestPlanAddColumnsCurrentTable(t *testing.T) {
	m := accountMapping(t)

	live := make([]prettyorm.ColumnInfo, 0)
	for _, f := range m.Fields() {
		live = append(live, prettyorm.ColumnInfo{Name: f.Name})
	}

	assert.Empty(t, prettyorm.PlanAddColumns(m, live),
		"a current table yields an empty plan")
}

func TestCreateTable(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	m := accountMapping(t)

	require.NoError(t, db.CreateTable(ctx, m))

	columns, err := db.Conn().TableColumns(ctx, m.TableName())
	require.NoError(t, err)
	require.Len(t, columns, 4)
	assert.Equal(t, "Id", columns[0].Name)
	assert.True(t, columns[0].PrimaryKey)
	assert.Equal(t, "integer", columns[0].DeclType)
	assert.Equal(t, "varchar(50)", columns[1].DeclType)
	assert.Equal(t, "bigint", columns[3].DeclType)
}

func TestCreateTableIdempotent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	m := accountMapping(t)

	require.NoError(t, db.CreateTable(ctx, m))
	require.NoError(t, db.CreateTable(ctx, m), "repeat setup is a no-op")

	columns, err := db.Conn().TableColumns(ctx, m.TableName())
	require.NoError(t, err)
	assert.Len(t, columns, 4)
	assert.Empty(t, prettyorm.PlanAddColumns(m, columns))
}

func TestCreateTableAdditiveMigration(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	v1 := accountV1Mapping(t)
	require.NoError(t, db.CreateTable(ctx, v1))

	seeded, err := prettyorm.Insert(ctx, db, v1, accountV1{Name: "alice"}, ident[accountV1])
	require.NoError(t, err)

	// the wider mapping gains OwnerId and CreatedAt
	v2 := accountMapping(t)
	require.NoError(t, db.CreateTable(ctx, v2))

	columns, err := db.Conn().TableColumns(ctx, v2.TableName())
	require.NoError(t, err)
	assert.Len(t, columns, 4)

	// the seeded row survives; new columns hydrate as zero values
	migrated, err := prettyorm.Find(ctx, db, v2, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", migrated.Name)
	assert.Zero(t, migrated.OwnerID)
	assert.True(t, migrated.CreatedAt.IsZero())
}

func TestCreateTableNotNullAddColumnFails(t *testing.T) {
	type noteV2 struct {
		ID   int64
		Body *string
		Tag  string
	}

	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, db.CreateTable(ctx, noteMapping(t)))

	b := schema.NewBuilder[noteV2]("Note", schema.ImplicitPK|schema.AutoIncPK)
	schema.Integer(b, "Id",
		func(n *noteV2) int64 { return n.ID },
		func(n *noteV2, v int64) { n.ID = v })
	b.NullString("Body",
		func(n *noteV2) *string { return n.Body },
		func(n *noteV2, v *string) { n.Body = v }).NotNull()
	b.String("Tag",
		func(n *noteV2) string { return n.Tag },
		func(n *noteV2, v string) { n.Tag = v }).NotNull()
	v2, err := b.Build()
	require.NoError(t, err)

	// sqlite cannot add a NOT NULL column without a default; the failure
	// surfaces verbatim
	err = db.CreateTable(ctx, v2)
	var migErr *prettyorm.MigrationError
	require.ErrorAs(t, err, &migErr)
	assert.Equal(t, "Note", migErr.Table)
}

func TestCreateTableIndexes(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	m := accountMapping(t)

	require.NoError(t, db.CreateTable(ctx, m))
	require.NoError(t, db.CreateTable(ctx, m))

	rows, err := db.Conn().Query(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'index' AND name = ?", "Account_OwnerId")
	require.NoError(t, err)
	defer rows.Close()

	found := 0
	for rows.Next() {
		found++
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, 1, found, "the implicit OwnerId index exists exactly once")
}
