// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package recommend

import (
	"sort"
)

// BuildTrainingRows left-joins enabled customers with their contracts and
// per-contract claim counts. Each contract yields one row; a customer with
// no contracts yields a single row with a zero ProductID and a missing
// premium. Disabled customers are skipped. Contracts whose customer is
// unknown or disabled are ignored.
//
// Rows are ordered by (CustomerID, ContractID) so repeated builds over the
// same data are identical regardless of input order.
func BuildTrainingRows(customers []CustomerRecord, contracts []ContractRecord, claims []ClaimRecord) []TrainingRow {
	claimCounts := make(map[int64]int, len(contracts))
	for i := range claims {
		claimCounts[claims[i].ContractID]++
	}

	byCustomer := make(map[int64][]*ContractRecord, len(customers))
	for i := range contracts {
		c := &contracts[i]
		byCustomer[c.CustomerID] = append(byCustomer[c.CustomerID], c)
	}

	rows := make([]TrainingRow, 0, len(contracts)+len(customers))
	seen := make(map[int64]struct{}, len(customers))

	for i := range customers {
		cu := &customers[i]
		if !cu.Enabled {
			continue
		}
		// Duplicate customer records would otherwise duplicate every contract row.
		if _, dup := seen[cu.ID]; dup {
			continue
		}
		seen[cu.ID] = struct{}{}

		owned := byCustomer[cu.ID]
		if len(owned) == 0 {
			row := customerRow(cu)
			row.TotalPremium = Missing()
			rows = append(rows, row)
			continue
		}

		for _, co := range owned {
			row := customerRow(cu)
			row.ContractID = co.ID
			row.ProductID = co.ProductID
			row.TotalPremium = co.TotalPremium
			row.ContractStatus = co.Status
			row.PaymentStatus = co.PaymentStatus
			row.ClaimsCount = claimCounts[co.ID]
			rows = append(rows, row)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].CustomerID != rows[j].CustomerID {
			return rows[i].CustomerID < rows[j].CustomerID
		}
		return rows[i].ContractID < rows[j].ContractID
	})

	return rows
}

func customerRow(cu *CustomerRecord) TrainingRow {
	return TrainingRow{
		CustomerID:   cu.ID,
		EntityType:   cu.EntityType,
		Gender:       cu.Gender,
		FamilyStatus: cu.FamilyStatus,
		BirthDate:    cu.BirthDate,
		Sector:       cu.Sector,
		SubSector:    cu.SubSector,
		City:         cu.City,
		Governorate:  cu.Governorate,
	}
}
