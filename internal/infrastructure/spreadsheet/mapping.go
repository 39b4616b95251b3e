package spreadsheet

import "strings"

// Field identifies one of the contact columns recognized in uploaded sheets
type Field string

const (
	FieldFirstName   Field = "first_name"
	FieldLastName    Field = "last_name"
	FieldPhone       Field = "phone"
	FieldEmail       Field = "email"
	FieldCompanyName Field = "company_name"
)

// fieldPriority fixes the order in which fields claim header columns. A
// column can serve only one field, so more specific fields must claim
// theirs before looser synonyms get a chance.
var fieldPriority = []Field{
	FieldFirstName,
	FieldLastName,
	FieldPhone,
	FieldEmail,
	FieldCompanyName,
}

// fieldSynonyms lists the Russian and English header fragments accepted
// for each field. Matching is case-insensitive substring.
var fieldSynonyms = map[Field][]string{
	FieldFirstName:   {"имя", "first"},
	FieldLastName:    {"фамилия", "last", "surname"},
	FieldPhone:       {"телефон", "phone", "тел", "mobile"},
	FieldEmail:       {"почта", "mail", "email"},
	FieldCompanyName: {"компания", "company", "организация", "фирма"},
}

// exportHeaders are the fixed column titles written to generated files,
// in the same order as fieldPriority
var exportHeaders = []string{"Имя", "Фамилия", "Номер телефона", "Почта", "Компания"}

// MapHeaders resolves which column index feeds each contact field. Headers
// are matched fuzzily: a column belongs to a field when its normalized
// title contains one of the field's synonyms, or equals the bare "name".
// Unrecognized columns are ignored; missing fields simply stay unmapped.
func MapHeaders(headers []string) map[Field]int {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}

	mapping := make(map[Field]int, len(fieldPriority))
	claimed := make(map[int]bool, len(headers))

	for _, field := range fieldPriority {
		for i, header := range normalized {
			if claimed[i] || header == "" {
				continue
			}
			if headerMatches(field, header) {
				mapping[field] = i
				claimed[i] = true
				break
			}
		}
	}

	return mapping
}

func headerMatches(field Field, header string) bool {
	// a bare "name" column means the first name
	if field == FieldFirstName && header == "name" {
		return true
	}
	for _, syn := range fieldSynonyms[field] {
		if strings.Contains(header, syn) {
			return true
		}
	}
	return false
}

// extractRow pulls the mapped fields out of one raw row, trimming each
// cell. Cells beyond the row length read as empty.
func extractRow(mapping map[Field]int, cells []string) map[Field]string {
	out := make(map[Field]string, len(mapping))
	for field, idx := range mapping {
		if idx < len(cells) {
			out[field] = strings.TrimSpace(cells[idx])
		} else {
			out[field] = ""
		}
	}
	return out
}
