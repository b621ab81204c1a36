package http

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/wenwu/saas-platform/directory-service/internal/models"
)

// DBAdminHandler is a read-only browser over the directory tables for the
// operator portal. Only the tables in browsableTables are reachable.
type DBAdminHandler struct {
	pool   *pgxpool.Pool
	schema string
	log    *zap.Logger
}

func NewDBAdminHandler(pool *pgxpool.Pool, schema string, log *zap.Logger) *DBAdminHandler {
	return &DBAdminHandler{pool: pool, schema: schema, log: log}
}

const (
	defaultPageSize = 50
	maxPageSize     = 100
	maskedValue     = "***"
)

// columnFilter is an equality filter exposed as a query parameter of the same name
type columnFilter struct {
	column string
	valid  func(string) bool
}

type browsableTable struct {
	name        string
	columns     []string
	masked      []string
	searchable  []string
	sortable    []string
	defaultSort string
	filters     []columnFilter
}

func oneOf(values ...string) func(string) bool {
	return func(v string) bool { return slices.Contains(values, v) }
}

func anyValue(string) bool { return true }

var browsableTables = []browsableTable{
	{
		name: "providers",
		columns: []string{
			"id", "name", "category", "city", "email", "password_hash", "phone", "whatsapp", "website",
			"status", "tier", "badge", "services", "public_display", "registered_at", "updated_at",
		},
		masked:      []string{"email", "password_hash"},
		searchable:  []string{"name", "category", "city"},
		sortable:    []string{"name", "status", "tier", "registered_at", "updated_at"},
		defaultSort: "registered_at",
		filters: []columnFilter{
			{"status", oneOf(models.ProviderStatusPending, models.ProviderStatusApproved, models.ProviderStatusRejected)},
			{"tier", models.IsValidTier},
		},
	},
	{
		name:        "featured_slots",
		columns:     []string{"id", "provider_id", "assigned_at", "expires_at"},
		sortable:    []string{"id", "assigned_at", "expires_at"},
		defaultSort: "id",
		filters:     []columnFilter{{"provider_id", anyValue}},
	},
	{
		name:        "reviews",
		columns:     []string{"id", "provider_id", "author_name", "rating", "text", "status", "created_at"},
		searchable:  []string{"author_name", "text"},
		sortable:    []string{"rating", "status", "created_at"},
		defaultSort: "created_at",
		filters: []columnFilter{
			{"status", oneOf(models.ReviewStatusPending, models.ReviewStatusApproved, models.ReviewStatusRejected)},
			{"provider_id", anyValue},
		},
	},
	{
		name:        "moderation_logs",
		columns:     []string{"id", "provider_id", "action", "actor", "message", "metadata", "created_at"},
		searchable:  []string{"actor", "message"},
		sortable:    []string{"action", "created_at"},
		defaultSort: "created_at",
		filters: []columnFilter{
			{"action", models.IsValidAction},
			{"provider_id", anyValue},
		},
	},
}

func lookupTable(name string) (browsableTable, bool) {
	for _, t := range browsableTables {
		if t.name == name {
			return t, true
		}
	}
	return browsableTable{}, false
}

// rowsQuery is a validated request for one page of a table
type rowsQuery struct {
	page      int
	pageSize  int
	search    string
	sortBy    string
	sortOrder string
	filters   map[string]string
}

// parseRowsQuery reads paging, search, sort and column filters. Paging falls
// back to defaults; an unknown sort column or an invalid filter value is an error.
func parseRowsQuery(c *gin.Context, t browsableTable) (rowsQuery, error) {
	q := rowsQuery{
		search:    strings.TrimSpace(c.Query("search")),
		sortBy:    c.DefaultQuery("sort_by", t.defaultSort),
		sortOrder: strings.ToLower(c.DefaultQuery("sort_order", "desc")),
		filters:   make(map[string]string),
	}

	q.page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if q.page < 1 {
		q.page = 1
	}
	q.pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if q.pageSize < 1 || q.pageSize > maxPageSize {
		q.pageSize = defaultPageSize
	}
	if q.sortOrder != "asc" && q.sortOrder != "desc" {
		q.sortOrder = "desc"
	}

	if !slices.Contains(t.sortable, q.sortBy) {
		return q, fmt.Errorf("cannot sort %s by %q", t.name, q.sortBy)
	}
	for _, f := range t.filters {
		v := c.Query(f.column)
		if v == "" {
			continue
		}
		if !f.valid(v) {
			return q, fmt.Errorf("invalid %s filter %q", f.column, v)
		}
		q.filters[f.column] = v
	}
	return q, nil
}

// buildRowsSQL renders the count and page queries for q. Identifiers come
// from the static table catalogue; every user value is a bind parameter.
func buildRowsSQL(schema string, t browsableTable, q rowsQuery) (countSQL, pageSQL string, args []interface{}) {
	qualified := pgx.Identifier{schema, t.name}.Sanitize()

	var where []string
	for _, f := range t.filters {
		v, ok := q.filters[f.column]
		if !ok {
			continue
		}
		args = append(args, v)
		where = append(where, fmt.Sprintf("%s::text = $%d", pgx.Identifier{f.column}.Sanitize(), len(args)))
	}
	if q.search != "" && len(t.searchable) > 0 {
		args = append(args, q.search)
		conds := make([]string, 0, len(t.searchable))
		for _, col := range t.searchable {
			conds = append(conds, fmt.Sprintf("%s ILIKE '%%' || $%d || '%%'", pgx.Identifier{col}.Sanitize(), len(args)))
		}
		where = append(where, "("+strings.Join(conds, " OR ")+")")
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	cols := make([]string, 0, len(t.columns))
	for _, col := range t.columns {
		cols = append(cols, pgx.Identifier{col}.Sanitize())
	}

	countSQL = "SELECT COUNT(*) FROM " + qualified + whereSQL
	pageSQL = fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s %s, \"id\" LIMIT $%d OFFSET $%d",
		strings.Join(cols, ", "), qualified, whereSQL,
		pgx.Identifier{q.sortBy}.Sanitize(), strings.ToUpper(q.sortOrder), len(args)+1, len(args)+2)
	return countSQL, pageSQL, args
}

// ListTables returns the browsable tables with approximate row counts
// GET /tables
func (h *DBAdminHandler) ListTables(c *gin.Context) {
	names := make([]string, 0, len(browsableTables))
	for _, t := range browsableTables {
		names = append(names, t.name)
	}

	rows, err := h.pool.Query(c.Request.Context(), `
		SELECT relname, n_live_tup::int
		FROM pg_stat_user_tables
		WHERE schemaname = $1 AND relname = ANY($2)
	`, h.schema, names)
	if err != nil {
		h.internalError(c, "count table rows", err)
		return
	}
	defer rows.Close()

	counts := make(map[string]int, len(names))
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			h.internalError(c, "scan table count", err)
			return
		}
		counts[name] = n
	}
	if err := rows.Err(); err != nil {
		h.internalError(c, "count table rows", err)
		return
	}

	type tableInfo struct {
		Name     string `json:"name"`
		RowCount int    `json:"row_count"`
	}
	tables := make([]tableInfo, 0, len(names))
	for _, name := range names {
		tables = append(tables, tableInfo{Name: name, RowCount: counts[name]})
	}
	respondOK(c, gin.H{"tables": tables})
}

// GetTableSchema describes what the browser exposes for a table
// GET /tables/:table/schema
func (h *DBAdminHandler) GetTableSchema(c *gin.Context) {
	t, ok := lookupTable(c.Param("table"))
	if !ok {
		respondError(c, http.StatusNotFound, ErrCodeNotFound, fmt.Sprintf("table %q not found", c.Param("table")))
		return
	}

	type columnInfo struct {
		Name       string `json:"name"`
		Masked     bool   `json:"masked"`
		Searchable bool   `json:"searchable"`
		Sortable   bool   `json:"sortable"`
		Filterable bool   `json:"filterable"`
	}
	columns := make([]columnInfo, 0, len(t.columns))
	for _, col := range t.columns {
		columns = append(columns, columnInfo{
			Name:       col,
			Masked:     slices.Contains(t.masked, col),
			Searchable: slices.Contains(t.searchable, col),
			Sortable:   slices.Contains(t.sortable, col),
			Filterable: slices.ContainsFunc(t.filters, func(f columnFilter) bool { return f.column == col }),
		})
	}

	respondOK(c, gin.H{"table": t.name, "columns": columns, "default_sort": t.defaultSort})
}

// QueryRows returns one page of a table with optional search, sort and filters
// GET /tables/:table/rows?page=1&page_size=50&search=&sort_by=&sort_order=desc&status=
func (h *DBAdminHandler) QueryRows(c *gin.Context) {
	t, ok := lookupTable(c.Param("table"))
	if !ok {
		respondError(c, http.StatusNotFound, ErrCodeNotFound, fmt.Sprintf("table %q not found", c.Param("table")))
		return
	}

	q, err := parseRowsQuery(c, t)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	countSQL, pageSQL, args := buildRowsSQL(h.schema, t, q)

	var total int
	if err := h.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		h.internalError(c, "count rows", err)
		return
	}

	rows, err := h.pool.Query(ctx, pageSQL, append(args, q.pageSize, (q.page-1)*q.pageSize)...)
	if err != nil {
		h.internalError(c, "query rows", err)
		return
	}
	defer rows.Close()

	results := make([]map[string]interface{}, 0, q.pageSize)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			h.internalError(c, "read row", err)
			return
		}
		results = append(results, renderRow(t, values))
	}
	if err := rows.Err(); err != nil {
		h.internalError(c, "query rows", err)
		return
	}

	respondOK(c, gin.H{
		"table":     t.name,
		"rows":      results,
		"total":     total,
		"page":      q.page,
		"page_size": q.pageSize,
		"sort_by":   q.sortBy,
	})
}

func (h *DBAdminHandler) internalError(c *gin.Context, op string, err error) {
	h.log.Error("db browser "+op+" failed", zap.String("path", c.FullPath()), zap.Error(err))
	respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "database query failed")
}

// renderRow pairs values with the table's column list, masking as configured
func renderRow(t browsableTable, values []interface{}) map[string]interface{} {
	row := make(map[string]interface{}, len(t.columns))
	for i, col := range t.columns {
		if i >= len(values) {
			break
		}
		if slices.Contains(t.masked, col) {
			row[col] = maskValue(col, values[i])
			continue
		}
		row[col] = formatValue(values[i])
	}
	return row
}

// maskValue hides credentials entirely. Emails keep their first letter and
// domain so operators can still tell accounts apart.
func maskValue(column string, v interface{}) interface{} {
	if v == nil {
		return nil
	}
	if column == "email" {
		if s, ok := v.(string); ok {
			if at := strings.LastIndex(s, "@"); at > 0 {
				return s[:1] + maskedValue + s[at:]
			}
		}
	}
	return maskedValue
}

// formatValue converts pgx native types to JSON-friendly representations
func formatValue(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	switch val := v.(type) {
	case [16]byte:
		h := hex.EncodeToString(val[:])
		return h[:8] + "-" + h[8:12] + "-" + h[12:16] + "-" + h[16:20] + "-" + h[20:]
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case []interface{}:
		// TEXT[] such as providers.services
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = formatValue(item)
		}
		return out
	default:
		return v
	}
}
