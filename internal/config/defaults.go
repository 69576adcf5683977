package config

// DefaultKeywords is the chemistry vocabulary the daemon ships with. Configs
// that define their own keywords replace it wholesale.
func DefaultKeywords() Keywords {
	return Keywords{
		Core: []string{
			"chimiste", "chemist", "chimie", "chemistry",
		},
		Specializations: []string{
			"chimie analytique", "analytical chemistry",
			"chimie organique", "organic chemistry",
			"chimie des matériaux", "materials chemistry",
			"chimie alimentaire", "food chemistry",
			"chimie pharmaceutique", "pharmaceutical chemistry",
			"chimie environnementale", "environmental chemistry",
			"instrumentation", "validation de processus",
			"contrôle qualité", "quality control",
			"analyse environnementale", "environmental analysis",
			"biochimie", "biochemistry",
			"traitement des eaux", "water treatment",
			"purification d'eau", "water purification",
			"gestion des eaux", "water management",
			"analyse des eaux", "water analysis",
			"hse", "qhse", "health safety environment",
			"qualité hygiène sécurité environnement",
		},
		JobTitles: []string{
			"chimiste", "chemist",
			"technicien chimie", "chemistry technician",
			"analyste chimique", "chemical analyst",
			"ingénieur chimie", "chemical engineer",
			"chercheur chimie", "chemistry researcher",
			"contrôle qualité", "quality control specialist",
			"expert traitement des eaux", "water treatment specialist",
			"ingénieur eau", "water engineer",
			"responsable hse", "hse manager",
			"chargé qhse", "qhse officer",
		},
		Domains: []string{
			"laboratoire", "laboratory",
			"recherche chimique", "chemical research",
			"contrôle qualité chimique", "chemical quality control",
			"analyse chimique", "chemical analysis",
			"spectroscopie", "spectroscopy",
			"chromatographie", "chromatography",
			"microscope électronique", "electron microscope",
			"analyse des eaux", "water analysis",
			"émissions industrielles", "industrial emissions",
			"analyse médicale", "medical analysis",
			"gestion environnementale", "environmental management",
			"recyclage des eaux", "water recycling",
			"qualité hygiène sécurité", "quality hygiene safety",
		},
	}
}

// DefaultExclusions disqualifies titles for unrelated professions, seniority
// markers, and excessive-experience phrasing. "expert" stays allowed when it
// appears inside the water-treatment job titles we actually target.
func DefaultExclusions() ExclusionConfig {
	return ExclusionConfig{
		Terms: []string{
			"senior", "confirmé", "expérimenté",
			"developer", "développeur", "software",
			"commercial", "vendeur", "comptable",
			"infirmier", "médecin", "enseignant",
			"directeur", "chef de projet",
			"expert",
		},
		CarveOuts: []ExclusionCarveOut{
			{Term: "expert", Qualifiers: []string{"traitement des eaux", "water treatment"}},
		},
	}
}
