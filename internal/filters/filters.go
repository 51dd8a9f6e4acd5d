// Package filters turns list query parameters into gorm scopes: exact
// filters, free text search and ordering.
package filters

import (
	"fmt"
	"slices"
	"strings"

	"github.com/khanghh/kcentral/internal/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	ParamSearch   = "search"
	ParamSearchBy = "search_by"
	ParamOrdering = "ordering"

	MsgInvalidChoice   = "Select a valid choice. %s is not one of the available choices."
	MsgInvalidRelation = "Select a valid choice. That choice is not one of the available choices."
	MsgInvalidBoolean  = "Enter a valid boolean."

	likeEscape = "!"
)

// Field names a column. An empty Table means the queried model's own table.
type Field struct {
	Table  string
	Column string
}

func (f Field) column() clause.Column {
	if f.Table == "" {
		return clause.Column{Table: clause.CurrentTable, Name: f.Column}
	}
	return clause.Column{Table: f.Table, Name: f.Column}
}

func Col(column string) Field {
	return Field{Column: column}
}

func TableCol(table, column string) Field {
	return Field{Table: table, Column: column}
}

type FilterKind int

const (
	KindBool FilterKind = iota
	KindChoice
	KindID
)

type Filter struct {
	Param   string
	Kind    FilterKind
	Field   Field
	Choices []string
}

func BoolFilter(param string, field Field) Filter {
	return Filter{Param: param, Kind: KindBool, Field: field}
}

func ChoiceFilter(param string, field Field, choices []string) Filter {
	return Filter{Param: param, Kind: KindChoice, Field: field, Choices: choices}
}

func IDFilter(param string, field Field) Filter {
	return Filter{Param: param, Kind: KindID, Field: field}
}

// OrderField maps an ordering name accepted from clients to a column.
type OrderField struct {
	Name  string
	Field Field
}

// FilterSet describes what a list endpoint can be filtered, searched and
// ordered by.
type FilterSet struct {
	Filters []Filter
	// Search holds the fields searched when no search_by narrowing applies.
	Search []Field
	// SearchBy maps accepted search_by values to the fields searched.
	SearchBy        map[string][]Field
	Ordering        []OrderField
	DefaultOrdering string
}

// Apply validates the query parameters and returns a scope applying them.
// Unknown parameters are ignored.
func (fs *FilterSet) Apply(params map[string]string) (func(*gorm.DB) *gorm.DB, error) {
	errs := validation.Errors{}
	var conds []clause.Expression
	for _, f := range fs.Filters {
		raw, ok := params[f.Param]
		if !ok || raw == "" {
			continue
		}
		cond, msg := f.condition(raw)
		if msg != "" {
			errs.Add(f.Param, msg)
			continue
		}
		conds = append(conds, cond)
	}
	if !errs.Empty() {
		return nil, errs
	}

	conds = append(conds, fs.searchConditions(params[ParamSearch], params[ParamSearchBy])...)
	orders := fs.orderColumns(params[ParamOrdering])

	return func(db *gorm.DB) *gorm.DB {
		for _, cond := range conds {
			db = db.Where(cond)
		}
		for _, order := range orders {
			db = db.Order(order)
		}
		return db
	}, nil
}

func (f Filter) condition(raw string) (clause.Expression, string) {
	col := f.Field.column()
	switch f.Kind {
	case KindBool:
		switch strings.ToLower(raw) {
		case "true", "1":
			return clause.Eq{Column: col, Value: true}, ""
		case "false", "0":
			return clause.Eq{Column: col, Value: false}, ""
		}
		return nil, MsgInvalidBoolean
	case KindChoice:
		if !slices.Contains(f.Choices, raw) {
			return nil, fmt.Sprintf(MsgInvalidChoice, raw)
		}
		return clause.Eq{Column: col, Value: raw}, ""
	case KindID:
		id, ok := validation.ParseID(raw)
		if !ok {
			return nil, MsgInvalidRelation
		}
		return clause.Eq{Column: col, Value: id}, ""
	}
	return nil, fmt.Sprintf("unsupported filter kind %d", f.Kind)
}

func escapeLike(term string) string {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return r.Replace(term)
}

func (fs *FilterSet) searchFields(searchBy string) []Field {
	if fields, ok := fs.SearchBy[searchBy]; ok {
		return fields
	}
	return fs.Search
}

// searchConditions requires every whitespace separated term to match at
// least one field, case insensitively.
func (fs *FilterSet) searchConditions(search string, searchBy string) []clause.Expression {
	fields := fs.searchFields(searchBy)
	terms := strings.Fields(strings.ReplaceAll(search, ",", " "))
	if len(fields) == 0 || len(terms) == 0 {
		return nil
	}
	conds := make([]clause.Expression, 0, len(terms))
	for _, term := range terms {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		ors := make([]clause.Expression, 0, len(fields))
		for _, field := range fields {
			ors = append(ors, clause.Expr{
				SQL:  "LOWER(?) LIKE ? ESCAPE '" + likeEscape + "'",
				Vars: []interface{}{field.column(), pattern},
			})
		}
		conds = append(conds, clause.Or(ors...))
	}
	return conds
}

func (fs *FilterSet) orderColumns(ordering string) []clause.OrderByColumn {
	if ordering == "" {
		ordering = fs.DefaultOrdering
	}
	var orders []clause.OrderByColumn
	for _, name := range strings.Split(ordering, ",") {
		name = strings.TrimSpace(name)
		desc := strings.HasPrefix(name, "-")
		name = strings.TrimPrefix(name, "-")
		idx := slices.IndexFunc(fs.Ordering, func(of OrderField) bool { return of.Name == name })
		if idx < 0 {
			continue
		}
		orders = append(orders, clause.OrderByColumn{Column: fs.Ordering[idx].Field.column(), Desc: desc})
	}
	if len(orders) == 0 && ordering != fs.DefaultOrdering && fs.DefaultOrdering != "" {
		return fs.orderColumns(fs.DefaultOrdering)
	}
	return orders
}
