package domain

// DefaultTemplate returns the built-in empty technical data sheet for a
// water-treatment project. These are the fixed sections every project
// starts from; ResetToInitial restores exactly this layout.
func DefaultTemplate() []Section {
	return []Section{
		{
			ID:    "general",
			Title: "Datos generales",
			Fixed: true,
			Fields: []Field{
				{ID: "flow", Label: "Caudal de diseño", Type: FieldTypeUnit, Unit: "m3/d", Source: FieldSourceManual, Required: true, ValidationRule: "omitempty,numeric"},
				{ID: "peak_flow", Label: "Caudal punta", Type: FieldTypeUnit, Unit: "m3/h", Source: FieldSourceManual, ValidationRule: "omitempty,numeric"},
				{ID: "water_origin", Label: "Origen del agua", Type: FieldTypeSelect, Source: FieldSourceManual, Options: []string{"industrial", "municipal", "mixta"}},
			},
		},
		{
			ID:    "influent",
			Title: "Calidad del agua de entrada",
			Fixed: true,
			Fields: []Field{
				{ID: "ph", Label: "pH", Type: FieldTypeNumber, Source: FieldSourceManual, ValidationRule: "omitempty,numeric"},
				{ID: "cod", Label: "DQO", Type: FieldTypeUnit, Unit: "mg/L", Source: FieldSourceManual, ValidationRule: "omitempty,numeric"},
				{ID: "bod", Label: "DBO5", Type: FieldTypeUnit, Unit: "mg/L", Source: FieldSourceManual, ValidationRule: "omitempty,numeric"},
				{ID: "tss", Label: "Sólidos en suspensión", Type: FieldTypeUnit, Unit: "mg/L", Source: FieldSourceManual, ValidationRule: "omitempty,numeric"},
				{ID: "conductivity", Label: "Conductividad", Type: FieldTypeUnit, Unit: "uS/cm", Source: FieldSourceManual, ValidationRule: "omitempty,numeric"},
				{ID: "temperature", Label: "Temperatura", Type: FieldTypeUnit, Unit: "C", Source: FieldSourceManual, ValidationRule: "omitempty,numeric"},
			},
		},
		{
			ID:    "effluent",
			Title: "Requisitos de vertido",
			Fixed: true,
			Fields: []Field{
				{ID: "cod_limit", Label: "DQO límite", Type: FieldTypeUnit, Unit: "mg/L", Source: FieldSourceManual, ValidationRule: "omitempty,numeric"},
				{ID: "tss_limit", Label: "SST límite", Type: FieldTypeUnit, Unit: "mg/L", Source: FieldSourceManual, ValidationRule: "omitempty,numeric"},
				{ID: "discharge_target", Label: "Destino del vertido", Type: FieldTypeSelect, Source: FieldSourceManual, Options: []string{"cauce", "colector", "reutilización"}},
			},
		},
		{
			ID:    "process",
			Title: "Proceso de tratamiento",
			Fixed: true,
			Fields: []Field{
				{ID: "pretreatment", Label: "Pretratamiento", Type: FieldTypeTags, Source: FieldSourceManual},
				{ID: "main_treatment", Label: "Tratamiento principal", Type: FieldTypeText, Source: FieldSourceManual},
				{ID: "sludge_line", Label: "Línea de fangos", Type: FieldTypeText, Source: FieldSourceManual},
			},
		},
	}
}
