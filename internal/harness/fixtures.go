package harness

import "github.com/roach88/siphon/internal/testutil"

// fixture is a database a scenario can filter.
type fixture struct {
	sql        string
	table      string
	key        string
	timeFormat string
}

var fixtures = map[string]fixture{
	"people": {
		sql:        testutil.PeopleSQL(),
		table:      "people",
		key:        "id",
		timeFormat: testutil.PeopleTimeFormat,
	},
}
