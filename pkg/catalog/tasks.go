package catalog

import "github.com/osvaldoandrade/sqldojo/pkg/domain"

// shipped is the level table served by Default. Order is display order.
var shipped = []domain.Task{
	{
		ID:              1,
		Level:           1,
		Title:           "The Yellow Sprint",
		Topic:           "Filtering + Sorting + Limiting",
		Difficulty:      1,
		Goal:            "Find the names of ducklings that are yellow and younger than 5. Sort by age, youngest first. Show only the first 3 names.",
		Badge:           "WHERE + AND + ORDER BY + LIMIT",
		RequiresOrder:   true,
		MaxRows:         3,
		ExpectedColumns: []string{"name"},
		ExpectedSQL: `SELECT name
FROM ducklings
WHERE color = 'yellow'
  AND age < 5
ORDER BY age ASC, name ASC
LIMIT 3;`,
		Hints: []string{
			"Start with SELECT name FROM ducklings",
			"Filter with WHERE color = 'yellow'",
			"Add age condition with AND age < 5",
			"Sort with ORDER BY age ASC",
			"Cap results with LIMIT 3",
		},
	},
	{
		ID:              2,
		Level:           2,
		Title:           "Youngest in the Flock",
		Topic:           "Sorting + Top-1",
		Difficulty:      1,
		Goal:            "Which duck is the youngest overall? Show their name only. Sort by age, youngest first, return only one row.",
		Badge:           "ORDER BY ASC",
		RequiresOrder:   true,
		MaxRows:         1,
		ExpectedColumns: []string{"name"},
		ExpectedSQL: `SELECT name
FROM ducklings
ORDER BY age ASC, name ASC
LIMIT 1;`,
		Hints: []string{
			"SELECT name FROM ducklings",
			"Sort by smallest age: ORDER BY age ASC",
			"Return one row: LIMIT 1",
		},
	},
	{
		ID:              3,
		Level:           3,
		Title:           "Elder of the Pond",
		Topic:           "Sorting + Top-1",
		Difficulty:      1,
		Goal:            "Find the oldest duck in the pond and show their name only. Sort by age, oldest first, return only one row.",
		Badge:           "ORDER BY DESC",
		RequiresOrder:   true,
		MaxRows:         1,
		ExpectedColumns: []string{"name"},
		ExpectedSQL: `SELECT name
FROM ducklings
ORDER BY age DESC, name ASC
LIMIT 1;`,
		Hints: []string{
			"SELECT name FROM ducklings",
			"Sort by largest age: ORDER BY age DESC",
			"Return one row: LIMIT 1",
		},
	},
	{
		ID:              4,
		Level:           4,
		Title:           "Golden Roll Call",
		Topic:           "Filtering + Sorting by Another Column",
		Difficulty:      2,
		Goal:            "Find yellow ducklings that are age 3 or older. Sort by name A to Z. Show only the first 2 names.",
		Badge:           "Sorting by a different column",
		RequiresOrder:   true,
		MaxRows:         2,
		ExpectedColumns: []string{"name"},
		ExpectedSQL: `SELECT name
FROM ducklings
WHERE color = 'yellow'
  AND age >= 3
ORDER BY name ASC
LIMIT 2;`,
		Hints: []string{
			"SELECT name FROM ducklings",
			"WHERE color = 'yellow'",
			"Add age threshold: AND age >= 3",
			"Sort alphabetically: ORDER BY name ASC",
			"LIMIT 2",
		},
	},
	{
		ID:              5,
		Level:           5,
		Title:           "Fastest Waddlers",
		Topic:           "Top-N",
		Difficulty:      2,
		Goal:            "Show the names of the 4 youngest ducklings, any color. Sort by age, youngest first.",
		Badge:           "Top-N results",
		RequiresOrder:   true,
		MaxRows:         4,
		ExpectedColumns: []string{"name"},
		ExpectedSQL: `SELECT name
FROM ducklings
ORDER BY age ASC, name ASC
LIMIT 4;`,
		Hints: []string{
			"SELECT name FROM ducklings",
			"ORDER BY age ASC",
			"LIMIT 4",
		},
	},
	{
		ID:              6,
		Level:           6,
		Title:           "The Between Pond",
		Topic:           "Range Filtering",
		Difficulty:      2,
		Goal:            "Find ducklings aged 2 through 4 (inclusive). Sort by age, youngest first. Show only the first 5 names.",
		Badge:           "Range filtering (BETWEEN)",
		RequiresOrder:   true,
		MaxRows:         5,
		ExpectedColumns: []string{"name"},
		ExpectedSQL: `SELECT name
FROM ducklings
WHERE age BETWEEN 2 AND 4
ORDER BY age ASC, name ASC
LIMIT 5;`,
		Hints: []string{
			"SELECT name FROM ducklings",
			"Range filter: WHERE age >= 2 AND age <= 4",
			"Alternative (also valid): WHERE age BETWEEN 2 AND 4",
			"ORDER BY age ASC",
			"LIMIT 5",
		},
	},
	{
		ID:              7,
		Level:           7,
		Title:           "Count the Yellow",
		Topic:           "Aggregates",
		Difficulty:      3,
		Goal:            "How many ducklings are yellow? Return a single number.",
		Badge:           "COUNT(*)",
		RequiresOrder:   false,
		MaxRows:         1,
		ExpectedColumns: []string{"count"},
		ExpectedSQL: `SELECT COUNT(*) AS count
FROM ducklings
WHERE color = 'yellow';`,
		Hints: []string{
			"Use an aggregate: SELECT COUNT(*) AS count",
			"From the table: FROM ducklings",
			"Filter to yellow: WHERE color = 'yellow'",
		},
	},
	{
		ID:              8,
		Level:           8,
		Title:           "Color Census",
		Topic:           "GROUP BY",
		Difficulty:      3,
		Goal:            "Show how many ducklings there are of each color. Return color and count, highest count first.",
		Badge:           "GROUP BY + Aggregates",
		RequiresOrder:   false,
		MaxRows:         4,
		ExpectedColumns: []string{"color", "count"},
		ExpectedSQL: `SELECT color, COUNT(*) AS count
FROM ducklings
GROUP BY color
ORDER BY count DESC, color ASC;`,
		Hints: []string{
			"Select the group key + aggregate: SELECT color, COUNT(*) AS count",
			"Group rows: FROM ducklings GROUP BY color",
			"Sort by count: ORDER BY count DESC",
		},
	},
	{
		ID:              9,
		Level:           9,
		Title:           "Popular Colors Only",
		Topic:           "HAVING",
		Difficulty:      4,
		Goal:            "Show only colors that have at least 3 ducklings. Return color and count, highest count first.",
		Badge:           "HAVING",
		RequiresOrder:   false,
		MaxRows:         2,
		ExpectedColumns: []string{"color", "count"},
		ExpectedSQL: `SELECT color, COUNT(*) AS count
FROM ducklings
GROUP BY color
HAVING COUNT(*) >= 3
ORDER BY count DESC, color ASC;`,
		Hints: []string{
			"Start from Level 8 (group by color with count)",
			"Filter groups using HAVING COUNT(*) >= 3",
			"ORDER BY count DESC",
		},
	},
	{
		ID:              10,
		Level:           10,
		Title:           "The Approved Palette",
		Topic:           "IN",
		Difficulty:      4,
		Goal:            "Show duckling names where color is either yellow or brown. Sort by name A to Z.",
		Badge:           "IN (...)",
		RequiresOrder:   true,
		MaxRows:         9,
		ExpectedColumns: []string{"name"},
		ExpectedSQL: `SELECT name
FROM ducklings
WHERE color IN ('yellow', 'brown')
ORDER BY name ASC;`,
		Hints: []string{
			"SELECT name FROM ducklings",
			"Use IN: WHERE color IN ('yellow', 'brown')",
			"ORDER BY name ASC",
		},
	},
	{
		ID:              11,
		Level:           11,
		Title:           "Names That Start With D",
		Topic:           "LIKE",
		Difficulty:      4,
		Goal:            "Find ducklings whose names start with the letter “D”. Sort by name A to Z.",
		Badge:           "LIKE patterns",
		RequiresOrder:   true,
		MaxRows:         3,
		ExpectedColumns: []string{"name"},
		ExpectedSQL: `SELECT name
FROM ducklings
WHERE name LIKE 'D%'
ORDER BY name ASC;`,
		Hints: []string{
			"SELECT name FROM ducklings",
			"Pattern match: WHERE name LIKE 'D%'",
			"ORDER BY name ASC",
		},
	},
	{
		ID:              12,
		Level:           12,
		Title:           "Age Rank Parade",
		Topic:           "Window Functions",
		Difficulty:      5,
		Goal:            "Show each duckling’s name, age, and their rank by age (youngest = 1). Sort by rank, then name.",
		Badge:           "Window Functions (ROW_NUMBER)",
		RequiresOrder:   true,
		MaxRows:         12,
		ExpectedColumns: []string{"name", "age", "age_rank"},
		ExpectedSQL: `SELECT
  name,
  age,
  ROW_NUMBER() OVER (ORDER BY age ASC, name ASC) AS age_rank
FROM ducklings
ORDER BY age_rank ASC, name ASC;`,
		Hints: []string{
			"You need a window function: ROW_NUMBER() OVER (ORDER BY age ASC)",
			"Select fields: SELECT name, age, ROW_NUMBER() OVER (...) AS age_rank",
			"Sort results: ORDER BY age_rank ASC, name ASC",
		},
	},
}
