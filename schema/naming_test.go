package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gentledepp/prettyorm/schema"
)

func TestDefaultNamer(t *testing.T) {
	n := schema.DefaultNamer{}
	assert.Equal(t, "Account", n.TableName("Account"))
	assert.Equal(t, "OwnerId", n.ColumnName("Account", "OwnerId"))
	assert.Equal(t, "Account_OwnerId", n.IndexName("Account", "OwnerId"))
}

func TestNamingStrategyTableName(t *testing.T) {
	tests := []struct {
		strategy schema.NamingStrategy
		name     string
		want     string
	}{
		{schema.NamingStrategy{}, "Account", "accounts"},
		{schema.NamingStrategy{}, "Person", "people"},
		{schema.NamingStrategy{SingularTable: true}, "Account", "account"},
		{schema.NamingStrategy{TablePrefix: "t_"}, "Account", "t_accounts"},
		{schema.NamingStrategy{TablePrefix: "t_", SingularTable: true}, "OrderItem", "t_order_item"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.strategy.TableName(tt.name))
	}
}

func TestNamingStrategyColumnName(t *testing.T) {
	ns := schema.NamingStrategy{}
	tests := []struct {
		name string
		want string
	}{
		{"Name", "name"},
		{"CreatedAt", "created_at"},
		{"CreatedAtId", "created_at_id"},
		{"UserID", "user_id"},
		{"HTTPStatus", "http_status"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ns.ColumnName("accounts", tt.name))
	}
}

func TestNamingStrategyIndexName(t *testing.T) {
	ns := schema.NamingStrategy{}
	assert.Equal(t, "idx_accounts_owner_id", ns.IndexName("accounts", "OwnerId"))
}

func TestBuilderWithNamingStrategy(t *testing.T) {
	b := accountBuilder(schema.AllImplicit)
	b.Namer(schema.NamingStrategy{})

	m, err := b.Build()
	assert.NoError(t, err)
	assert.Equal(t, "accounts", m.TableName())

	_, ok := m.Column("owner_id")
	assert.True(t, ok)
}
