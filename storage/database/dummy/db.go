// Package dummydb provides in-memory repositories for tests and local hacking.
package dummydb

import (
	"sort"
	"strings"
	"sync"

	"github.com/taqyimhq/taqyim/core"
	"github.com/taqyimhq/taqyim/core/center"
	"github.com/taqyimhq/taqyim/core/evaluation"
	"github.com/taqyimhq/taqyim/core/form"
	"github.com/taqyimhq/taqyim/core/user"
)

type (
	DB struct {
		user       *userTable
		center     *centerTable
		form       *formTable
		evaluation *evaluationTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	centerTable struct {
		sync.RWMutex
		table map[string]*center.Center
	}

	formTable struct {
		sync.RWMutex
		table map[string]*form.Form
		// criteria sets per form, keyed by version; old versions stay frozen
		criteria map[string]map[int][]form.Criterion
	}

	evaluationTable struct {
		sync.RWMutex
		table     map[string]*evaluation.Evaluation
		responses map[string][]evaluation.Response
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:   &userTable{table: make(map[string]*user.User)},
		center: &centerTable{table: make(map[string]*center.Center)},
		form: &formTable{
			table:    make(map[string]*form.Form),
			criteria: make(map[string]map[int][]form.Criterion),
		},
		evaluation: &evaluationTable{
			table:     make(map[string]*evaluation.Evaluation),
			responses: make(map[string][]evaluation.Response),
		},
	}
	return db, nil
}

func matchesSearch(search string, fields ...string) bool {
	if search == "" {
		return true
	}
	search = strings.ToLower(search)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

// sortStable applies orderings right-to-left with stable sorts, so the first
// ordering wins like a SQL ORDER BY list. less functions are keyed by column
// name and compare ascending.
func sortStable(ordering []core.DBOrdering, length int, swap func(i, j int), less map[string]func(i, j int) bool) {
	for idx := len(ordering) - 1; idx >= 0; idx-- {
		ord := ordering[idx]
		lessFn, ok := less[strings.TrimPrefix(ord.Field, "e.")]
		if !ok {
			continue
		}
		sort.Stable(byFunc{length, swap, func(i, j int) bool {
			if ord.Ascending {
				return lessFn(i, j)
			}
			return lessFn(j, i)
		}})
	}
}

type byFunc struct {
	length int
	swap   func(i, j int)
	less   func(i, j int) bool
}

func (s byFunc) Len() int           { return s.length }
func (s byFunc) Swap(i, j int)      { s.swap(i, j) }
func (s byFunc) Less(i, j int) bool { return s.less(i, j) }
