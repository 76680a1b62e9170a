package repository

const (
	SortIDAsc       = "id_asc"
	SortIDDesc      = "id_desc"
	SortFilenameAsc = "filename_asc"
	SortDateAsc     = "date_asc"
	SortDateDesc    = "date_desc"
)

const DefaultSortOrder = SortIDAsc

// IsValidSortOrder checks if a string is a valid sort order constant
func IsValidSortOrder(order string) bool {
	switch order {
	case SortIDAsc, SortIDDesc, SortFilenameAsc, SortDateAsc, SortDateDesc:
		return true
	default:
		return false
	}
}

// orderClause maps a sort order onto SQL; undated images always sort last.
func orderClause(order string) string {
	switch order {
	case SortIDDesc:
		return "image_id DESC"
	case SortFilenameAsc:
		return "filename ASC, image_id ASC"
	case SortDateAsc:
		return "date_taken IS NULL, date_taken ASC, image_id ASC"
	case SortDateDesc:
		return "date_taken IS NULL, date_taken DESC, image_id ASC"
	default:
		return "image_id ASC"
	}
}
