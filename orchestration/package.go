// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package orchestration

import "time"

// Recognized data-requirement tags.
const (
	TagFinancialData  = "financial_data"
	TagMarketingData  = "marketing_data"
)

// Placeholder numeric defaults used when context lacks a recognized tag's
// fields. A deployment wanting fail-loud semantics instead should reject a
// data requirement whose fields are absent from context rather than calling
// defaultFinancialData/defaultMarketingData.
const (
	DefaultRevenue     = 0.0
	DefaultExpenses    = 0.0
	DefaultCampaignSpend = 0.0
	DefaultImpressions   = 0
)

// BuildDataPackage composes the payload shipped to the selected agent: the
// client id, the caller's context, the declared data types, and a
// materialized slice per recognized tag drawn from context or defaults.
func BuildDataPackage(clientID string, context map[string]interface{}, dataRequirements []string, encrypted bool) DataPackage {
	if context == nil {
		context = map[string]interface{}{}
	}
	data := make(map[string]interface{}, len(dataRequirements))
	for _, tag := range dataRequirements {
		switch tag {
		case TagFinancialData:
			data[tag] = defaultFinancialData(context)
		case TagMarketingData:
			data[tag] = defaultMarketingData(context)
		default:
			// Unrecognized tags pass through context verbatim if present.
			if v, ok := context[tag]; ok {
				data[tag] = v
			}
		}
	}
	return DataPackage{
		ClientID:   clientID,
		Context:    context,
		DataTypes:  dataRequirements,
		Data:       data,
		PreparedAt: time.Now().UTC(),
		Encrypted:  encrypted,
	}
}

func defaultFinancialData(context map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{
		"revenue":  DefaultRevenue,
		"expenses": DefaultExpenses,
		"period":   "current_quarter",
	}
	if v, ok := context["revenue"]; ok {
		out["revenue"] = v
	}
	if v, ok := context["expenses"]; ok {
		out["expenses"] = v
	}
	if v, ok := context["period"]; ok {
		out["period"] = v
	}
	return out
}

func defaultMarketingData(context map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{
		"campaign_name": "unspecified",
		"spend":         DefaultCampaignSpend,
		"impressions":   DefaultImpressions,
	}
	if v, ok := context["campaign_name"]; ok {
		out["campaign_name"] = v
	}
	if v, ok := context["marketing_spend"]; ok {
		out["spend"] = v
	} else if v, ok := context["spend"]; ok {
		out["spend"] = v
	}
	if v, ok := context["impressions"]; ok {
		out["impressions"] = v
	}
	return out
}
