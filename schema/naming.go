package schema

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jinzhu/inflection"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Namer derives database identifiers from registered names.
type Namer interface {
	TableName(name string) string
	ColumnName(table, name string) string
	IndexName(table, column string) string
}

// DefaultNamer keeps registered names as-is; tables and columns are named
// exactly like the record type and its fields. Index names default to
// <table>_<column>.
type DefaultNamer struct{}

func (DefaultNamer) TableName(name string) string          { return name }
func (DefaultNamer) ColumnName(table, name string) string  { return name }
func (DefaultNamer) IndexName(table, column string) string { return table + "_" + column }

// NamingStrategy converts registered names to snake_case database
// identifiers, optionally pluralizing table names and applying a prefix.
type NamingStrategy struct {
	TablePrefix   string
	SingularTable bool
}

func (ns NamingStrategy) TableName(name string) string {
	if ns.SingularTable {
		return ns.TablePrefix + toDBName(name)
	}
	return ns.TablePrefix + inflection.Plural(toDBName(name))
}

func (ns NamingStrategy) ColumnName(table, name string) string {
	return toDBName(name)
}

func (ns NamingStrategy) IndexName(table, column string) string {
	return fmt.Sprintf("idx_%s_%s", table, toDBName(column))
}

var (
	smap sync.Map
	// https://github.com/golang/lint/blob/master/lint.go#L770
	commonInitialisms         = []string{"API", "ASCII", "CPU", "CSS", "DNS", "EOF", "GUID", "HTML", "HTTP", "HTTPS", "ID", "IP", "JSON", "LHS", "QPS", "RAM", "RHS", "RPC", "SLA", "SMTP", "SSH", "TLS", "TTL", "UID", "UI", "UUID", "URI", "URL", "UTF8", "VM", "XML", "XSRF", "XSS"}
	commonInitialismsReplacer *strings.Replacer
)

func init() {
	titleCaser := cases.Title(language.English)
	var pairs []string
	for _, initialism := range commonInitialisms {
		pairs = append(pairs, initialism, titleCaser.String(strings.ToLower(initialism)))
	}
	commonInitialismsReplacer = strings.NewReplacer(pairs...)
}

func toDBName(name string) string {
	if name == "" {
		return ""
	} else if v, ok := smap.Load(name); ok {
		return fmt.Sprint(v)
	}

	var (
		value                          = commonInitialismsReplacer.Replace(name)
		buf                            strings.Builder
		lastCase, nextCase, nextNumber bool // upper case == true
		curCase                        = value[0] <= 'Z' && value[0] >= 'A'
	)

	for i, v := range value[:len(value)-1] {
		nextCase = value[i+1] <= 'Z' && value[i+1] >= 'A'
		nextNumber = value[i+1] >= '0' && value[i+1] <= '9'

		if curCase {
			if lastCase && (nextCase || nextNumber) {
				buf.WriteRune(v + 32)
			} else {
				if i > 0 && value[i-1] != '_' && value[i+1] != '_' {
					buf.WriteByte('_')
				}
				buf.WriteRune(v + 32)
			}
		} else {
			buf.WriteRune(v)
		}

		lastCase = curCase
		curCase = nextCase
	}

	if curCase {
		if !lastCase && len(value) > 1 {
			buf.WriteByte('_')
		}
		buf.WriteByte(value[len(value)-1] + 32)
	} else {
		buf.WriteByte(value[len(value)-1])
	}

	result := buf.String()
	smap.Store(name, result)
	return result
}
