package mysql

// Offer archive: one row per (place, hotel, night). Re-fetching the same
// night refreshes the price/points snapshot and the run that saw it.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS offer_archive (
  place_id    VARCHAR(64)   NOT NULL,
  hotel_id    VARCHAR(128)  NOT NULL,
  checkin     DATE          NOT NULL,
  hotel_name  VARCHAR(255)  NOT NULL,
  price       DECIMAL(12,2) NOT NULL,
  base_points INT           NOT NULL,
  run_id      CHAR(36)      NOT NULL,
  fetched_at  TIMESTAMP     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
  PRIMARY KEY (place_id, hotel_id, checkin),
  KEY idx_place_checkin (place_id, checkin)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`

const insertOffersPrefix = `
INSERT INTO offer_archive
  (place_id, hotel_id, checkin, hotel_name, price, base_points, run_id)
VALUES `

const insertOffersOnDup = `
ON DUPLICATE KEY UPDATE
  hotel_name = VALUES(hotel_name),
  price = VALUES(price),
  base_points = VALUES(base_points),
  run_id = VALUES(run_id)`

const listOffersSQL = `
SELECT hotel_id, hotel_name, checkin, price, base_points
FROM offer_archive
WHERE place_id = ? AND checkin BETWEEN ? AND ?
ORDER BY checkin, hotel_id`
