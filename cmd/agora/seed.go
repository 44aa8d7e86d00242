package main

import "github.com/agoradata/agora/core"

// sampleDatasets returns a small demo catalog spanning several vendors
// and domains. IDs are left to the sequence generator.
func sampleDatasets() []*core.Dataset {
	return []*core.Dataset{
		{
			Title:              "Global Equity Tick Data",
			Description:        "Tick-level trade and quote data for equities on 40 major exchanges, normalized and survivorship-bias free.",
			Domain:             "Finance",
			PricingModel:       "subscription",
			Price:              4500,
			Topics:             []string{"equities", "market data", "ticks"},
			TemporalCoverage:   "2005-present",
			GeographicCoverage: "Global",
			Visibility:         core.VisibilityPublic,
			VendorId:           101,
		},
		{
			Title:              "Cryptocurrency Order Books",
			Description:        "Full-depth order book snapshots and deltas for the top 200 trading pairs across 12 exchanges.",
			Domain:             "Finance",
			PricingModel:       "usage_based",
			Price:              0.002,
			Topics:             []string{"crypto", "order books", "market microstructure"},
			TemporalCoverage:   "2017-present",
			GeographicCoverage: "Global",
			Visibility:         core.VisibilityPublic,
			VendorId:           101,
		},
		{
			Title:              "US Consumer Credit Panel",
			Description:        "Anonymized monthly credit bureau panel covering 10 million US consumers with balances, delinquencies and inquiries.",
			Domain:             "Finance",
			PricingModel:       "one_time",
			Price:              28000,
			Topics:             []string{"credit", "consumer", "risk"},
			TemporalCoverage:   "2010-2025",
			GeographicCoverage: "United States",
			Visibility:         core.VisibilityPublic,
			VendorId:           102,
		},
		{
			Title:              "Hospital Readmission Records",
			Description:        "De-identified inpatient admissions with diagnoses, procedures and 30-day readmission outcomes from 400 hospitals.",
			Domain:             "Healthcare",
			PricingModel:       "one_time",
			Price:              15000,
			Topics:             []string{"admissions", "outcomes", "claims"},
			TemporalCoverage:   "2015-2024",
			GeographicCoverage: "United States",
			Visibility:         core.VisibilityPublic,
			VendorId:           103,
		},
		{
			Title:              "Prescription Fill Trends",
			Description:        "Weekly prescription fill counts by molecule, region and payer channel, projected to national volumes.",
			Domain:             "Healthcare",
			PricingModel:       "subscription",
			Price:              6200,
			Topics:             []string{"pharmacy", "prescriptions", "payers"},
			TemporalCoverage:   "2018-present",
			GeographicCoverage: "United States",
			Visibility:         core.VisibilityPublic,
			VendorId:           103,
		},
		{
			Title:              "Retail Footfall Counters",
			Description:        "Hourly visitor counts for 25,000 retail locations derived from anonymized mobile location pings.",
			Domain:             "Retail",
			PricingModel:       "subscription",
			Price:              3100,
			Topics:             []string{"footfall", "location", "stores"},
			TemporalCoverage:   "2019-present",
			GeographicCoverage: "North America, Europe",
			Visibility:         core.VisibilityPublic,
			VendorId:           104,
		},
		{
			Title:              "E-commerce Price Monitor",
			Description:        "Daily prices, promotions and stock status for 4 million SKUs across 300 online retailers.",
			Domain:             "Retail",
			PricingModel:       "usage_based",
			Price:              0.01,
			Topics:             []string{"pricing", "e-commerce", "competitive intelligence"},
			TemporalCoverage:   "2020-present",
			GeographicCoverage: "Global",
			Visibility:         core.VisibilityPublic,
			VendorId:           104,
		},
		{
			Title:              "Container Vessel Movements",
			Description:        "AIS-derived vessel positions, port calls and estimated container throughput for the global merchant fleet.",
			Domain:             "Logistics",
			PricingModel:       "subscription",
			Price:              5400,
			Topics:             []string{"shipping", "AIS", "ports"},
			TemporalCoverage:   "2012-present",
			GeographicCoverage: "Global",
			Visibility:         core.VisibilityPublic,
			VendorId:           105,
		},
		{
			Title:              "Urban Air Quality Sensors",
			Description:        "Minute-resolution PM2.5, NO2 and ozone readings from dense sensor networks in 80 cities.",
			Domain:             "Environment",
			PricingModel:       "subscription",
			Price:              1800,
			Topics:             []string{"air quality", "sensors", "cities"},
			TemporalCoverage:   "2016-present",
			GeographicCoverage: "Global",
			Visibility:         core.VisibilityPublic,
			VendorId:           106,
		},
		{
			Title:              "Historical Weather Reanalysis",
			Description:        "Gridded hourly temperature, precipitation and wind reanalysis at 10km resolution.",
			Domain:             "Environment",
			PricingModel:       "one_time",
			Price:              9000,
			Topics:             []string{"weather", "climate", "reanalysis"},
			TemporalCoverage:   "1979-2024",
			GeographicCoverage: "Global",
			Visibility:         core.VisibilityPublic,
			VendorId:           106,
		},
		{
			Title:              "Satellite Crop Health Index",
			Description:        "Weekly NDVI and soil moisture composites for agricultural parcels, with crop type classification.",
			Domain:             "Agriculture",
			PricingModel:       "subscription",
			Price:              2700,
			Topics:             []string{"satellite", "NDVI", "crops"},
			TemporalCoverage:   "2013-present",
			GeographicCoverage: "Global",
			Visibility:         core.VisibilityPublic,
			VendorId:           107,
		},
		{
			Title:              "Job Postings Firehose",
			Description:        "Deduplicated job postings scraped from 60,000 company career sites, parsed into titles, skills and salary bands.",
			Domain:             "Labor",
			PricingModel:       "subscription",
			Price:              3900,
			Topics:             []string{"jobs", "skills", "hiring"},
			TemporalCoverage:   "2014-present",
			GeographicCoverage: "Global",
			Visibility:         core.VisibilityPublic,
			VendorId:           108,
		},
		{
			Title:              "Telecom Coverage Grids",
			Description:        "Crowdsourced signal strength measurements aggregated to 100m grids for all major carriers.",
			Domain:             "Telecom",
			PricingModel:       "one_time",
			Price:              12000,
			Topics:             []string{"coverage", "mobile", "networks"},
			TemporalCoverage:   "2021-2025",
			GeographicCoverage: "North America, Europe, APAC",
			Visibility:         core.VisibilityPublic,
			VendorId:           109,
		},
		{
			Title:              "Internal Margin Benchmarks",
			Description:        "Vendor-internal margin benchmarks by category, shared only with select partners.",
			Domain:             "Retail",
			PricingModel:       "one_time",
			Price:              50000,
			Topics:             []string{"margins", "benchmarks"},
			TemporalCoverage:   "2022-2025",
			GeographicCoverage: "United States",
			Visibility:         core.VisibilityPrivate,
			VendorId:           104,
		},
	}
}
