package config

// Example returns a starter configuration with one fully populated page,
// used by `sightline init` to scaffold a project.
func Example() *Config {
	cfg := &Config{
		Brand: BrandConfig{
			Title: "Community Ophthalmology Dashboards",
			Color: DefaultBrandColor,
		},
		Pages: []PageSpec{
			{
				Key:      "school",
				Title:    "School Screening Program",
				Subtitle: "Attendance, refraction outcomes, and referrals",
				Icon:     "🏫",
				DataFile: "school_program.csv",
				DateKey:  "date",
				Candidates: map[string][]string{
					"date":          {"screendate", "date"},
					"school_name":   {"schoolcode", "school name", "school"},
					"school_type":   {"schooltype"},
					"sex":           {"sex"},
					"screen_attend": {"screenattend", "screenattended"},
					"referred":      {"ref_eye_spec"},
				},
				Filters: []FilterSpec{
					{Key: "date", Label: "Date", Kind: FilterDate},
					{Key: "school_type", Label: "School Type", Kind: FilterMulti},
					{Key: "school_name", Label: "School Name", Kind: FilterMulti},
					{Key: "sex", Label: "Sex", Kind: FilterMulti},
				},
				Metrics: []MetricSpec{
					{Title: "Children Screened", Column: "screen_attend", Icon: "🩺", Color: "#22c55e"},
					{Title: "Referred", Column: "referred", BaseColumn: "screen_attend", Icon: "➡️", Color: "#14b8a6"},
				},
				PresentColumn: "screen_attend",
				PresentValue:  "present",
				Sections: []SectionSpec{
					{
						Title: "Demographics",
						Charts: []ChartSpec{
							{Title: "Gender Distribution", Column: "sex", Kind: ChartPie, Drop: []string{"", "nan"}},
							{Title: "School Type", Column: "school_type", Kind: ChartBar},
						},
					},
				},
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}
