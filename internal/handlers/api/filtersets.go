package api

import (
	"github.com/khanghh/kcentral/internal/filters"
	"github.com/khanghh/kcentral/model"
)

var userFilterSet = &filters.FilterSet{
	Filters: []filters.Filter{
		filters.BoolFilter("is_staff", filters.Col(model.ColUserIsStaff)),
		filters.BoolFilter("is_active", filters.Col(model.ColUserIsActive)),
		filters.BoolFilter("is_superuser", filters.Col(model.ColUserIsSuperuser)),
	},
	Search: []filters.Field{
		filters.Col(model.ColUserUsername),
		filters.Col(model.ColUserEmail),
		filters.Col(model.ColUserFirstName),
		filters.Col(model.ColUserLastName),
	},
	Ordering: []filters.OrderField{
		{Name: "id", Field: filters.Col("id")},
		{Name: "username", Field: filters.Col(model.ColUserUsername)},
		{Name: "email", Field: filters.Col(model.ColUserEmail)},
		{Name: "date_joined", Field: filters.Col("date_joined")},
		{Name: "last_login", Field: filters.Col(model.ColUserLastLogin)},
	},
	DefaultOrdering: "id",
}

var agentFilterSet = &filters.FilterSet{
	Filters: []filters.Filter{
		filters.ChoiceFilter("environment", filters.Col("environment"), model.Environments),
		filters.IDFilter("user", filters.Col("user_id")),
	},
	Search: []filters.Field{
		filters.Col("name"),
		filters.Col("address"),
	},
	Ordering: []filters.OrderField{
		{Name: "id", Field: filters.Col("id")},
		{Name: "name", Field: filters.Col("name")},
		{Name: "environment", Field: filters.Col("environment")},
	},
	DefaultOrdering: "id",
}

// eventFilterSet reaches into the joined "Agent" relation for the agent
// environment and the source name.
var eventFilterSet = &filters.FilterSet{
	Filters: []filters.Filter{
		filters.ChoiceFilter("environment", filters.TableCol("Agent", "environment"), model.Environments),
		filters.BoolFilter("archived", filters.Col("archived")),
		filters.ChoiceFilter("level", filters.Col("level"), model.Levels),
		filters.IDFilter("agent", filters.Col("agent_id")),
		filters.IDFilter("user", filters.Col("user_id")),
	},
	Search: []filters.Field{
		filters.Col("level"),
		filters.Col("description"),
		filters.TableCol("Agent", "name"),
	},
	SearchBy: map[string][]filters.Field{
		"level":       {filters.Col("level")},
		"description": {filters.Col("description")},
		"source":      {filters.TableCol("Agent", "name")},
	},
	Ordering: []filters.OrderField{
		{Name: "id", Field: filters.Col("id")},
		{Name: "level", Field: filters.Col("level")},
		{Name: "datetime", Field: filters.Col("datetime")},
		{Name: "archived", Field: filters.Col("archived")},
	},
	DefaultOrdering: "-datetime",
}

var groupFilterSet = &filters.FilterSet{
	Search: []filters.Field{filters.Col("name")},
	Ordering: []filters.OrderField{
		{Name: "id", Field: filters.Col("id")},
		{Name: "name", Field: filters.Col("name")},
	},
	DefaultOrdering: "id",
}

var permissionFilterSet = &filters.FilterSet{
	Search: []filters.Field{
		filters.Col("name"),
		filters.Col("codename"),
	},
	Ordering: []filters.OrderField{
		{Name: "id", Field: filters.Col("id")},
		{Name: "codename", Field: filters.Col("codename")},
	},
	DefaultOrdering: "id",
}
