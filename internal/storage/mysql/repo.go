package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"lpstays/internal/domain"
)

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// EnsureSchema creates the archive table if missing.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schemaSQL)
	return err
}

func (r *Repo) SaveOffers(ctx context.Context, runID, placeID string, offers []domain.Offer) error {
	if len(offers) == 0 {
		return nil
	}
	values := make([]string, 0, len(offers))
	args := make([]any, 0, len(offers)*7)
	for _, o := range offers {
		values = append(values, "(?,?,?,?,?,?,?)")
		args = append(args,
			placeID,
			o.HotelID,
			o.CheckIn.Format("2006-01-02"),
			o.HotelName,
			o.Price.StringFixed(2),
			o.BasePoints,
			runID,
		)
	}
	sqlStr := insertOffersPrefix + strings.Join(values, ",") + insertOffersOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *Repo) ListOffers(ctx context.Context, placeID string, from, to time.Time) ([]domain.Offer, error) {
	rows, err := r.db.QueryContext(ctx, listOffersSQL,
		placeID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Offer
	for rows.Next() {
		var (
			o        domain.Offer
			checkin  time.Time
			priceRaw string
		)
		if err := rows.Scan(&o.HotelID, &o.HotelName, &checkin, &priceRaw, &o.BasePoints); err != nil {
			return nil, err
		}
		price, err := decimal.NewFromString(priceRaw)
		if err != nil {
			return nil, err
		}
		o.CheckIn = checkin
		o.Price = price
		out = append(out, o)
	}
	return out, rows.Err()
}
