// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package database

import (
	"database/sql"
	"strings"
	"time"

	"github.com/tomtom215/covera/internal/recommend"
)

// Scanner is satisfied by *sql.Row, *sql.Rows and pgx rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Column lists matching the Scan* functions below.
const (
	CustomerColumns = "id, entity_type, gender, family_status, birth_date, sector, sub_sector, city, governorate, is_enabled"
	ContractColumns = "id, customer_id, product_id, total_premium, contract_status, payment_status"
	ClaimColumns    = "id, contract_id"
)

// ProductQuery joins products with their sub-branch and branch.
const ProductQuery = `SELECT p.id, p.product_name, sb.id, sb.sub_branch_name, b.id, b.branch_name
	FROM products p
	JOIN sub_branches sb ON p.sub_branch_id = sb.id
	JOIN branches b ON sb.branch_id = b.id
	ORDER BY p.id`

// ScanCustomer reads one row selected with CustomerColumns.
func ScanCustomer(s Scanner) (recommend.CustomerRecord, error) {
	var (
		c                                    recommend.CustomerRecord
		entityType, gender, familyStatus     sql.NullString
		sector, subSector, city, governorate sql.NullString
		birthDate                            sql.NullTime
		enabled                              sql.NullBool
	)
	if err := s.Scan(&c.ID, &entityType, &gender, &familyStatus, &birthDate,
		&sector, &subSector, &city, &governorate, &enabled); err != nil {
		return c, err
	}
	c.EntityType = recommend.ParseEntityType(entityType.String)
	c.Gender = trimmed(gender)
	c.FamilyStatus = trimmed(familyStatus)
	if birthDate.Valid {
		c.BirthDate = birthDate.Time.UTC()
	}
	c.Sector = trimmed(sector)
	c.SubSector = trimmed(subSector)
	c.City = trimmed(city)
	c.Governorate = trimmed(governorate)
	c.Enabled = enabled.Valid && enabled.Bool
	return c, nil
}

// ScanContract reads one row selected with ContractColumns.
func ScanContract(s Scanner) (recommend.ContractRecord, error) {
	var (
		c                             recommend.ContractRecord
		productID                     sql.NullInt64
		premium                       sql.NullFloat64
		contractStatus, paymentStatus sql.NullString
	)
	if err := s.Scan(&c.ID, &c.CustomerID, &productID, &premium, &contractStatus, &paymentStatus); err != nil {
		return c, err
	}
	if productID.Valid {
		c.ProductID = productID.Int64
	}
	c.TotalPremium = recommend.Missing()
	if premium.Valid {
		c.TotalPremium = premium.Float64
	}
	c.Status = recommend.ContractStatus(strings.ToUpper(trimmed(contractStatus)))
	c.PaymentStatus = trimmed(paymentStatus)
	return c, nil
}

// ScanClaim reads one row selected with ClaimColumns.
func ScanClaim(s Scanner) (recommend.ClaimRecord, error) {
	var c recommend.ClaimRecord
	err := s.Scan(&c.ID, &c.ContractID)
	return c, err
}

// ScanProduct reads one row selected by ProductQuery.
func ScanProduct(s Scanner) (recommend.ProductRecord, error) {
	var p recommend.ProductRecord
	err := s.Scan(&p.ID, &p.Name, &p.SubBranchID, &p.SubBranchName, &p.BranchID, &p.BranchName)
	return p, err
}

// TrainingRowValues returns the row in TrainingTableColumns order with
// missing values as nil.
//
//nolint:gocritic // hugeParam: row passed by value for immutability
func TrainingRowValues(row recommend.TrainingRow) []any {
	return []any{
		row.CustomerID,
		nullableString(string(row.EntityType)),
		nullableString(row.Gender),
		nullableString(row.FamilyStatus),
		nullableTime(row.BirthDate),
		nullableString(row.Sector),
		nullableString(row.SubSector),
		nullableString(row.City),
		nullableString(row.Governorate),
		nullableID(row.ContractID),
		nullableID(row.ProductID),
		nullableFloat(row.TotalPremium),
		nullableString(string(row.ContractStatus)),
		nullableString(row.PaymentStatus),
		int32(row.ClaimsCount), //nolint:gosec // claim counts fit in int32
	}
}

func trimmed(s sql.NullString) string {
	if !s.Valid {
		return ""
	}
	return strings.TrimSpace(s.String)
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func nullableFloat(f float64) any {
	if recommend.IsMissing(f) {
		return nil
	}
	return f
}
