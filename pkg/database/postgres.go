package database

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/charonlabs/charon/pkg/errors"
	"github.com/charonlabs/charon/pkg/structs"
)

const (
	jobsTable = "jobs"

	jobColumns = "id, kind, params, status, version, result, created_at, updated_at"
)

// Postgres is a charon database implementation that uses postgres.
type Postgres struct {
	opts *Options
	pool *pgxpool.Pool
}

// NewPostgres returns a new Postgres database connection.
func NewPostgres(opts *Options) (*Postgres, error) {
	opts.SetDefaults()
	opts.URL = strings.Replace(opts.URL, "$"+opts.UsernameEnvVar, os.Getenv(opts.UsernameEnvVar), 1)
	opts.URL = strings.Replace(opts.URL, "$"+opts.PasswordEnvVar, os.Getenv(opts.PasswordEnvVar), 1)
	pool, err := pgxpool.New(context.Background(), opts.URL)
	return &Postgres{pool: pool, opts: opts}, err
}

// Close shuts down the database connection.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// InsertJob writes a new job.
func (p *Postgres) InsertJob(ctx context.Context, j *structs.Job) error {
	params, err := json.Marshal(j.Params)
	if err != nil {
		return err
	}

	qstr := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, NULL, $6, $7);`, jobsTable, jobColumns)

	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, qstr, j.ID, string(j.Kind), params, string(j.Status), j.Version, j.CreatedAt, j.UpdatedAt)
	return err
}

// Job returns the job with the given id.
func (p *Postgres) Job(ctx context.Context, id string) (*structs.Job, error) {
	qstr := fmt.Sprintf(`SELECT %s FROM %s WHERE id=$1;`, jobColumns, jobsTable)

	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	j, err := scanJob(conn.QueryRow(ctx, qstr, id))
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("%w %s", errors.ErrNotFound, id)
	}
	return j, err
}

// Jobs returns jobs matching the given query, oldest first, plus the total
// count of matches before pagination.
func (p *Postgres) Jobs(ctx context.Context, q *structs.Query) ([]*structs.Job, int64, error) {
	where, args := toSqlQuery(map[string][]string{
		"id":     q.JobIDs,
		"kind":   kindsToStrings(q.Kinds),
		"status": statusToStrings(q.Statuses),
	})

	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer conn.Release()

	var total int64
	cstr := fmt.Sprintf(`SELECT count(*) FROM %s %s;`, jobsTable, where)
	err = conn.QueryRow(ctx, cstr, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	args = append(args, q.Limit, q.Offset)
	qstr := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY created_at ASC, id ASC LIMIT $%d OFFSET $%d;`,
		jobColumns, jobsTable, where, len(args)-1, len(args),
	)

	rows, err := conn.Query(ctx, qstr, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	jobs := []*structs.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, j)
	}

	return jobs, total, rows.Err()
}

// Transition applies the mutation iff status & version match the stored job.
// The guard is a single conditional UPDATE; postgres serialises concurrent
// attempts for us, so exactly one of any set of racing callers wins.
func (p *Postgres) Transition(ctx context.Context, id string, status structs.Status, version int64, mut *Mutation) (*structs.Job, error) {
	var result []byte
	if mut.Result != nil {
		data, err := json.Marshal(mut.Result)
		if err != nil {
			return nil, err
		}
		result = data
	}

	qstr := fmt.Sprintf(`UPDATE %s SET status=$1, result=COALESCE($2, result), version=version+1, updated_at=$3
	WHERE id=$4 AND status=$5 AND version=$6 RETURNING %s;`, jobsTable, jobColumns)

	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	j, err := scanJob(conn.QueryRow(ctx, qstr, string(mut.Status), result, timeNow(), id, string(status), version))
	if err != pgx.ErrNoRows {
		return j, err
	}

	// no row matched; work out whether the job is missing or just moved on
	_, err = p.Job(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w job %s is not at (%s, %d)", errors.ErrVersionMismatch, id, status, version)
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanJob(row scannable) (*structs.Job, error) {
	j := structs.Job{}
	var params []byte
	var result []byte
	err := row.Scan(
		&j.ID,
		&j.Kind,
		&params,
		&j.Status,
		&j.Version,
		&result,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if params != nil {
		err = json.Unmarshal(params, &j.Params)
		if err != nil {
			return nil, err
		}
	}
	if result != nil {
		j.Result = &structs.Result{}
		err = json.Unmarshal(result, j.Result)
		if err != nil {
			return nil, err
		}
	}
	return &j, nil
}

// toSqlQuery converts query filters into a SQL where clause & args
func toSqlQuery(in map[string][]string) (string, []interface{}) {
	if in == nil {
		in = map[string][]string{}
	}
	and := []string{}
	args := []interface{}{}
	for _, k := range []string{"id", "kind", "status"} {
		v, ok := in[k]
		if !ok || len(v) == 0 {
			continue
		}
		ors := []string{}
		for _, val := range v {
			args = append(args, val)
			ors = append(ors, fmt.Sprintf("%s=$%d", k, len(args)))
		}
		and = append(and, "("+strings.Join(ors, " OR ")+")")
	}
	if len(and) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(and, " AND "), args
}

func statusToStrings(in []structs.Status) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}

func kindsToStrings(in []structs.Kind) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, k := range in {
		out[i] = string(k)
	}
	return out
}
