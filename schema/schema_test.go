package schema_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gentledepp/prettyorm/schema"
)

type account struct {
	ID        int64
	Name      string
	OwnerID   int64
	CreatedAt time.Time
}

func accountBuilder(flags schema.CreateFlags) *schema.Builder[account] {
	b := schema.NewBuilder[account]("Account", flags)
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
	return b
}

func TestImplicitPrimaryKey(t *testing.T) {
	m, err := accountBuilder(schema.ImplicitPK).Build()
	require.NoError(t, err)

	pk, ok := m.PrimaryKey()
	require.True(t, ok)
	assert.Equal(t, "Id", pk.Name)
	assert.True(t, pk.NotNull, "primary key is implicitly NOT NULL")
	assert.False(t, pk.AutoIncrement)
}

func TestNoImplicitPrimaryKeyWithoutFlag(t *testing.T) {
	m, err := accountBuilder(schema.FlagsNone).Build()
	require.NoError(t, err)

	_, ok := m.PrimaryKey()
	assert.False(t, ok)
}

func TestExplicitPrimaryKeyWinsOverImplicit(t *testing.T) {
	b := schema.NewBuilder[account]("Account", schema.ImplicitPK)
	schema.Integer(b, "Id",
		func(a *account) int64 { return a.ID },
		func(a *account, v int64) { a.ID = v })
	b.String("Name",
		func(a *account) string { return a.Name },
		func(a *account, v string) { a.Name = v }).PrimaryKey()

	m, err := b.Build()
	require.NoError(t, err)

	pk, ok := m.PrimaryKey()
	require.True(t, ok)
	assert.Equal(t, "Name", pk.Name)

	id, ok := m.Column("Id")
	require.True(t, ok)
	assert.False(t, id.PrimaryKey)
}

func TestAutoIncrementPrimaryKey(t *testing.T) {
	m, err := accountBuilder(schema.ImplicitPK | schema.AutoIncPK).Build()
	require.NoError(t, err)

	pk, ok := m.PrimaryKey()
	require.True(t, ok)
	assert.True(t, pk.AutoIncrement)
}

func TestUUIDKeyNeverAutoIncrements(t *testing.T) {
	type device struct {
		ID    uuid.UUID
		Label string
	}

	b := schema.NewBuilder[device]("Device", schema.AutoIncPK)
	b.UUID("Id",
		func(d *device) uuid.UUID { return d.ID },
		func(d *device, v uuid.UUID) { d.ID = v }).PrimaryKey()
	b.String("Label",
		func(d *device) string { return d.Label },
		func(d *device, v string) { d.Label = v })

	m, err := b.Build()
	require.NoError(t, err)

	pk, ok := m.PrimaryKey()
	require.True(t, ok)
	assert.Equal(t, schema.UUID, pk.DataType)
	assert.False(t, pk.AutoIncrement)
}

func TestImplicitIndexForIdSuffixColumns(t *testing.T) {
	m, err := accountBuilder(schema.AllImplicit).Build()
	require.NoError(t, err)

	// the primary key "Id" is excluded; only "OwnerId" qualifies
	indexes := m.TableIndexes()
	require.Len(t, indexes, 1)
	assert.Equal(t, "Account_OwnerId", indexes[0].Name)
	assert.False(t, indexes[0].Unique)
	assert.Equal(t, []string{"OwnerId"}, indexes[0].Columns)
}

func TestExplicitIndexSuppressesImplicit(t *testing.T) {
	b := accountBuilder(schema.AllImplicit)
	schema.Integer(b, "GroupId",
		func(a *account) int64 { return 0 },
		func(a *account, v int64) {}).
		Index(schema.IndexSpec{Name: "idx_group", Unique: true})

	m, err := b.Build()
	require.NoError(t, err)

	indexes := m.TableIndexes()
	var group *schema.Index
	for i := range indexes {
		if indexes[i].Name == "idx_group" {
			group = &indexes[i]
		}
	}
	require.NotNil(t, group)
	assert.True(t, group.Unique)
	assert.Equal(t, []string{"GroupId"}, group.Columns)

	for _, idx := range indexes {
		assert.NotEqual(t, "Account_GroupId", idx.Name,
			"explicit declaration replaces the implicit one")
	}
}

func TestDuplicateColumnName(t *testing.T) {
	b := accountBuilder(schema.FlagsNone)
	b.String("Extra",
		func(a *account) string { return "" },
		func(a *account, v string) {}).Rename("name")

	_, err := b.Build()
	assert.ErrorIs(t, err, schema.ErrDuplicateColumn,
		"column names collide case-insensitively")
}

func TestMultiplePrimaryKeys(t *testing.T) {
	b := schema.NewBuilder[account]("Account", schema.FlagsNone)
	schema.Integer(b, "Id",
		func(a *account) int64 { return a.ID },
		func(a *account, v int64) { a.ID = v }).PrimaryKey()
	b.String("Name",
		func(a *account) string { return a.Name },
		func(a *account, v string) { a.Name = v }).PrimaryKey()

	_, err := b.Build()
	assert.ErrorIs(t, err, schema.ErrMultiplePrimaryKeys)
}

func TestNoColumns(t *testing.T) {
	b := schema.NewBuilder[account]("Account", schema.FlagsNone)
	b.String("Name",
		func(a *account) string { return a.Name },
		func(a *account, v string) { a.Name = v }).Ignore()

	_, err := b.Build()
	assert.ErrorIs(t, err, schema.ErrNoColumns)
}

func TestIgnoredColumnExcluded(t *testing.T) {
	b := accountBuilder(schema.FlagsNone)
	b.String("Scratch",
		func(a *account) string { return "" },
		func(a *account, v string) {}).Ignore()

	m, err := b.Build()
	require.NoError(t, err)

	assert.Len(t, m.Fields(), 4)
	_, ok := m.Column("Scratch")
	assert.False(t, ok)
}

func TestRename(t *testing.T) {
	b := schema.NewBuilder[account]("Account", schema.FlagsNone)
	b.String("Name",
		func(a *account) string { return a.Name },
		func(a *account, v string) { a.Name = v }).Rename("display_name")

	m, err := b.Build()
	require.NoError(t, err)

	col, ok := m.Column("display_name")
	require.True(t, ok)
	assert.Equal(t, "Name", col.FieldName)

	_, ok = m.Column("Name")
	assert.False(t, ok)
}

func TestNullability(t *testing.T) {
	b := accountBuilder(schema.ImplicitPK)
	b.String("Code",
		func(a *account) string { return "" },
		func(a *account, v string) {}).NotNull()

	m, err := b.Build()
	require.NoError(t, err)

	code, _ := m.Column("Code")
	assert.True(t, code.NotNull)

	name, _ := m.Column("Name")
	assert.False(t, name.NotNull)
}

func TestUnsupportedDataType(t *testing.T) {
	b := schema.NewBuilder[account]("Account", schema.FlagsNone)
	b.Column("Doc", schema.DataType("json"),
		func(a *account) any { return nil },
		func(a *account, v any) error { return nil })

	_, err := b.Build()
	var typeErr *schema.UnsupportedTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "Doc", typeErr.Field)
}

func TestBindValues(t *testing.T) {
	m, err := accountBuilder(schema.AllImplicit | schema.AutoIncPK).Build()
	require.NoError(t, err)

	at := time.Unix(0, 1724572800000000000).UTC()

	fresh := account{Name: "alice", OwnerID: 7, CreatedAt: at}
	values := m.BindValues(&fresh)
	require.Len(t, values, 4)
	assert.Nil(t, values[0], "zero autoincrement key binds as NULL")
	assert.Equal(t, "alice", values[1])
	assert.Equal(t, int64(7), values[2])
	assert.Equal(t, at.UnixNano(), values[3])

	keyed := account{ID: 42, Name: "bob"}
	values = m.BindValues(&keyed)
	assert.Equal(t, int64(42), values[0], "populated key binds as-is")
}

func TestIdentityStableAcrossInstances(t *testing.T) {
	m1, err := accountBuilder(schema.AllImplicit).Build()
	require.NoError(t, err)
	m2, err := accountBuilder(schema.AllImplicit).Build()
	require.NoError(t, err)

	assert.Equal(t, m1.Identity(), m2.Identity())
}

func TestIdentityChangesWithSpecification(t *testing.T) {
	m1, err := accountBuilder(schema.AllImplicit).Build()
	require.NoError(t, err)

	b := accountBuilder(schema.AllImplicit)
	b.String("Code",
		func(a *account) string { return "" },
		func(a *account, v string) {})
	m2, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, m1.Identity().Table, m2.Identity().Table)
	assert.NotEqual(t, m1.Identity().Hash, m2.Identity().Hash)
}

func TestFinalizeHook(t *testing.T) {
	b := accountBuilder(schema.FlagsNone)
	b.Finalize(func(a *account) error {
		a.Name = strings.ToUpper(a.Name)
		return nil
	})
	m, err := b.Build()
	require.NoError(t, err)

	rec := account{Name: "alice"}
	require.NoError(t, m.Finalize(&rec))
	assert.Equal(t, "ALICE", rec.Name)
}

func TestFinalizeHookError(t *testing.T) {
	boom := errors.New("boom")
	b := accountBuilder(schema.FlagsNone)
	b.Finalize(func(a *account) error { return boom })
	m, err := b.Build()
	require.NoError(t, err)

	assert.ErrorIs(t, m.Finalize(&account{}), boom)
}

func TestNullableColumnAssign(t *testing.T) {
	type note struct {
		ID   int64
		Body *string
	}

	b := schema.NewBuilder[note]("Note", schema.ImplicitPK)
	schema.Integer(b, "Id",
		func(n *note) int64 { return n.ID },
		func(n *note, v int64) { n.ID = v })
	b.NullString("Body",
		func(n *note) *string { return n.Body },
		func(n *note, v *string) { n.Body = v })

	m, err := b.Build()
	require.NoError(t, err)

	col, ok := m.Column("Body")
	require.True(t, ok)

	var n note
	require.NoError(t, col.Assign(&n, "hello"))
	require.NotNil(t, n.Body)
	assert.Equal(t, "hello", *n.Body)

	require.NoError(t, col.Assign(&n, nil))
	assert.Nil(t, n.Body)

	body := "bound"
	n.Body = &body
	assert.Equal(t, "bound", col.BindValue(&n))
	n.Body = nil
	assert.Nil(t, col.BindValue(&n))
}

func TestTableNameOverride(t *testing.T) {
	m, err := accountBuilder(schema.FlagsNone).Table("Legacy_Accounts").Build()
	require.NoError(t, err)
	assert.Equal(t, "Legacy_Accounts", m.TableName())
}
