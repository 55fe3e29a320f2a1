package converter

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/xuri/excelize/v2"
	_ "modernc.org/sqlite"

	"github.com/nconklindev/csvmaker/internal/logger"
	"github.com/nconklindev/csvmaker/internal/types"
)

// PreviewLimit is the default number of rows returned by PreviewFile.
const PreviewLimit = 10

// Job describes how to read one kind of input file.
type Job struct {
	Format types.Format

	// Delimited
	Delimiter rune

	// Fixed width
	Widths types.FieldWidths
	Strict bool

	// Text inputs. Empty means UTF-8.
	Encoding string

	// Spreadsheet inputs. Empty Sheet means the first sheet.
	Sheet  string
	Header bool

	// SQLite inputs
	Query string

	Options types.Options
}

// Convert streams rows from src to w until the source is exhausted or fails.
// Delimited sources are checked for a consistent field count. Errors never
// escape: every outcome is reported in the returned result.
func Convert(ctx context.Context, src Source, w io.Writer, opts types.Options) types.ConversionResult {
	rows := src.Rows
	if src.Format == types.FormatDelimited {
		rows = NewSchemaValidator(rows)
	}

	enc := NewEncoder(w, opts)
	written := 0
	for {
		if err := ctx.Err(); err != nil {
			res := failureFrom(src.Name, errors.Wrap(err, "conversion interrupted"))
			res.RowsWritten = written
			return res
		}

		row, err := rows.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			res := failureFrom(src.Name, err)
			res.RowsWritten = written
			return res
		}

		if err := enc.Encode(row); err != nil {
			res := failureFrom(src.Name, &ResourceError{Err: errors.Wrap(err, "write output")})
			res.RowsWritten = written
			return res
		}
		written++
	}

	return types.Success(src.Name, "", written)
}

// ConvertFile converts inputPath to a CSV file at outputPath. The input and
// output are closed before it returns. A failed conversion may leave a
// partial output file behind; removing it is up to the caller.
func ConvertFile(ctx context.Context, job Job, inputPath, outputPath string) types.ConversionResult {
	if samePath(inputPath, outputPath) {
		return failureFrom(inputPath, &ResourceError{Err: errors.Newf("output %s would overwrite the input", outputPath)})
	}

	src, closeSrc, err := openSource(ctx, job, inputPath)
	if err != nil {
		return failureFrom(inputPath, &SourceError{Err: err})
	}
	defer closeSrc()

	return writeOutput(ctx, src, outputPath, job.Options)
}

// ConvertQuery runs query against a database and writes the result to
// outputPath. driver is "sqlite" or "postgres".
func ConvertQuery(ctx context.Context, driver, dsn, query, outputPath string, opts types.Options) types.ConversionResult {
	name := driver + " query"

	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		if samePath(dsn, outputPath) {
			return failureFrom(name, &ResourceError{Err: errors.Newf("output %s would overwrite the database", outputPath)})
		}
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return failureFrom(name, &SourceError{Err: errors.Wrap(err, "open sqlite database")})
		}
		defer db.Close()

		return ConvertRows(ctx, db, query, name, outputPath, opts)

	case "postgres", "postgresql", "pgx":
		conn, err := pgx.Connect(ctx, dsn)
		if err != nil {
			return failureFrom(name, &SourceError{Err: errors.Wrap(err, "connect to postgres")})
		}
		defer conn.Close(context.Background())

		rows, err := conn.Query(ctx, query)
		if err != nil {
			return failureFrom(name, &SourceError{Err: errors.Wrap(err, "run query")})
		}
		cur := NewPgxCursor(rows)
		defer cur.Close()

		src := Source{Format: types.FormatTabular, Rows: NewTabularSource(cur), Name: name}
		return writeOutput(ctx, src, outputPath, opts)
	}

	return failureFrom(name, &SourceError{Err: errors.WithHint(
		errors.Newf("unsupported driver %q", driver), "use sqlite or postgres")})
}

// ConvertRows runs query on db and writes the result to outputPath.
func ConvertRows(ctx context.Context, db *sql.DB, query, name, outputPath string, opts types.Options) types.ConversionResult {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return failureFrom(name, &SourceError{Err: errors.Wrap(err, "run query")})
	}
	defer rows.Close()

	cur, err := NewSQLCursor(rows)
	if err != nil {
		return failureFrom(name, &SourceError{Err: err})
	}

	src := Source{Format: types.FormatTabular, Rows: NewTabularSource(cur), Name: name}
	return writeOutput(ctx, src, outputPath, opts)
}

// PreviewFile returns up to limit converted rows from the start of inputPath.
func PreviewFile(ctx context.Context, job Job, inputPath string, limit int) ([]types.Row, error) {
	if limit <= 0 {
		limit = PreviewLimit
	}

	src, closeSrc, err := openSource(ctx, job, inputPath)
	if err != nil {
		return nil, err
	}
	defer closeSrc()

	rows := src.Rows
	if src.Format == types.FormatDelimited {
		rows = NewSchemaValidator(rows)
	}

	var out []types.Row
	for len(out) < limit {
		row, err := rows.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, err
		}
		out = append(out, row)
	}
	return out, nil
}

func writeOutput(ctx context.Context, src Source, outputPath string, opts types.Options) types.ConversionResult {
	log := logger.Named("converter").With(
		logger.FieldFile, src.Name,
		logger.FieldFormat, src.Format.String(),
	)
	start := time.Now()

	out, err := os.Create(outputPath)
	if err != nil {
		return failureFrom(src.Name, &ResourceError{Err: errors.Wrap(err, "create output file")})
	}

	bw := bufio.NewWriter(out)
	res := Convert(ctx, src, bw, opts)

	flushErr := bw.Flush()
	closeErr := out.Close()
	if res.OK() {
		if err := errors.CombineErrors(flushErr, closeErr); err != nil {
			rows := res.RowsWritten
			res = failureFrom(src.Name, &ResourceError{Err: errors.Wrap(err, "write output file")})
			res.RowsWritten = rows
		}
	}
	res.OutputFile = outputPath

	if res.OK() {
		log.Debugw("converted",
			logger.FieldOutput, outputPath,
			logger.FieldRows, res.RowsWritten,
			logger.FieldDuration, time.Since(start).Milliseconds(),
		)
	} else {
		log.Warnw("conversion failed",
			logger.FieldKind, string(res.Kind),
			logger.FieldLine, res.LineNumber,
			logger.FieldError, res.Message,
		)
	}
	return res
}

// openSource opens inputPath as a row source for job.Format. The returned
// func releases everything that was opened.
func openSource(ctx context.Context, job Job, inputPath string) (Source, func(), error) {
	src := Source{Format: job.Format, Name: inputPath}

	switch job.Format {
	case types.FormatDelimited, types.FormatFixedWidth:
		f, err := os.Open(inputPath)
		if err != nil {
			return src, nil, errors.Wrap(err, "open input file")
		}
		r, err := decodeInput(f, job.Encoding)
		if err != nil {
			f.Close()
			return src, nil, err
		}

		if job.Format == types.FormatDelimited {
			src.Rows, err = NewDelimitedSource(r, job.Delimiter)
		} else {
			src.Rows, err = NewFixedWidthSource(r, job.Widths, job.Strict)
		}
		if err != nil {
			f.Close()
			return src, nil, err
		}
		return src, func() { f.Close() }, nil

	case types.FormatTabular:
		return openTabular(ctx, job, inputPath)
	}

	return src, nil, errors.Newf("unknown format %s", job.Format)
}

func openTabular(ctx context.Context, job Job, inputPath string) (Source, func(), error) {
	src := Source{Format: types.FormatTabular, Name: inputPath}

	switch strings.ToLower(filepath.Ext(inputPath)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		f, err := excelize.OpenFile(inputPath)
		if err != nil {
			return src, nil, errors.Wrap(err, "open workbook")
		}
		cur, err := NewSheetCursor(f, job.Sheet, job.Header)
		if err != nil {
			f.Close()
			return src, nil, err
		}
		src.Rows = NewTabularSource(cur)
		return src, func() {
			cur.Close()
			f.Close()
		}, nil

	case ".db", ".sqlite", ".sqlite3":
		if strings.TrimSpace(job.Query) == "" {
			return src, nil, errors.WithHint(errors.New("no query given for database input"),
				"pass --query, e.g. \"SELECT * FROM sheet1\"")
		}
		if _, err := os.Stat(inputPath); err != nil {
			return src, nil, errors.Wrap(err, "open database file")
		}
		db, err := sql.Open("sqlite", inputPath)
		if err != nil {
			return src, nil, errors.Wrap(err, "open sqlite database")
		}
		rows, err := db.QueryContext(ctx, job.Query)
		if err != nil {
			db.Close()
			return src, nil, errors.Wrap(err, "run query")
		}
		cur, err := NewSQLCursor(rows)
		if err != nil {
			rows.Close()
			db.Close()
			return src, nil, err
		}
		src.Rows = NewTabularSource(cur)
		return src, func() {
			cur.Close()
			db.Close()
		}, nil

	case ".xls":
		return src, nil, errors.WithHint(errors.Wrap(ErrUnsupportedFile, "legacy .xls workbook"),
			"save the workbook as .xlsx and convert that")
	}

	return src, nil, errors.Wrapf(ErrUnsupportedFile, "%s is not a workbook or database", filepath.Base(inputPath))
}

// samePath reports whether a and b name the same file.
func samePath(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	fa, errA := os.Stat(a)
	fb, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(fa, fb)
}
