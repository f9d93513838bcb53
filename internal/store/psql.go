package store

import sq "github.com/Masterminds/squirrel"

const (
	submissionTableName     = "solarintake.submissions"
	submissionFileTableName = "solarintake.submission_files"
)

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}
