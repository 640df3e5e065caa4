package knowledge

import "github.com/SeelanGov/thandi/internal/model"

// Default returns the built-in tables
func Default() *Tables {
	return &Tables{
		Careers:           defaultCareers(),
		PhraseSets:        defaultPhraseSets(),
		CategoryRules:     defaultCategoryRules(),
		ConflictRules:     defaultConflictRules(),
		CategoryCareers:   defaultCategoryCareers(),
		Subjects:          defaultSubjects(),
		SubjectExclusions: defaultSubjectExclusions(),
		SubjectCareers:    defaultSubjectCareers(),
		LowPrerequisite:   defaultLowPrerequisite(),
		Frameworks:        defaultFrameworks(),
		FundingSources:    defaultFundingSources(),
		SafetyTriggers:    defaultSafetyTriggers(),
		PromptBlocks:      defaultPromptBlocks(),
		RegionMarkers: []string{
			"South Africa", "South African", "matric", "NSC", "APS", "NSFAS", "TVET",
			"SETA", "Rand", "UNISA", "Wits", "UCT", "Stellenbosch", "University of Johannesburg",
			"University of Pretoria", "Gauteng", "KwaZulu-Natal", "Western Cape", "Eastern Cape",
			"Johannesburg", "Cape Town", "Durban", "Funza Lushaka", "ISFAP",
		},
		EverydayTerms: []string{
			"teacher", "doctor", "medicine", "nurse", "nursing", "lawyer", "advocate",
			"attorney", "vet", "mechanic", "physio",
		},
	}
}

func defaultCareers() []Career {
	return []Career{
		{ID: "software_developer", Name: "Software Developer", Aliases: []string{"software developer", "software engineer", "programmer", "coder"}, Subjects: []string{"math", "information_technology"}, Remote: true},
		{ID: "web_developer", Name: "Web Developer", Aliases: []string{"web developer", "front-end developer", "frontend developer"}, Subjects: []string{"information_technology"}, Remote: true, FastPath: true},
		{ID: "ux_designer", Name: "UX Designer", Aliases: []string{"ux designer", "ui designer", "product designer"}, Subjects: []string{"art", "information_technology"}, Remote: true},
		{ID: "game_developer", Name: "Game Developer", Aliases: []string{"game developer", "game designer"}, Subjects: []string{"information_technology", "art", "math"}, Remote: true},
		{ID: "animator", Name: "Animator", Aliases: []string{"animator", "3d artist", "motion designer"}, Subjects: []string{"art"}, Remote: true},
		{ID: "digital_marketer", Name: "Digital Marketer", Aliases: []string{"digital marketer", "social media manager"}, Subjects: []string{"business", "english"}, Remote: true, FastPath: true},
		{ID: "content_writer", Name: "Content Writer", Aliases: []string{"content writer", "copywriter"}, Subjects: []string{"english"}, Remote: true, FastPath: true},
		{ID: "medical_writer", Name: "Medical Writer", Aliases: []string{"medical writer"}, Subjects: []string{"biology", "english"}, Remote: true},
		{ID: "science_communicator", Name: "Science Communicator", Aliases: []string{"science communicator", "science journalist"}, Subjects: []string{"biology", "english"}, Remote: true},
		{ID: "nutrition_advisor", Name: "Nutrition Advisor", Aliases: []string{"nutrition advisor", "nutritionist"}, Subjects: []string{"biology", "consumer_studies"}, Remote: true},
		{ID: "data_analyst", Name: "Data Analyst", Aliases: []string{"data analyst"}, Subjects: []string{"math", "information_technology"}, Remote: true},
		{ID: "data_scientist", Name: "Data Scientist", Aliases: []string{"data scientist"}, Subjects: []string{"math", "information_technology"}, Remote: true},
		{ID: "actuarial_scientist", Name: "Actuarial Scientist", Aliases: []string{"actuarial scientist", "actuary"}, Subjects: []string{"math"}, LongPath: true},
		{ID: "quantitative_analyst", Name: "Quantitative Analyst", Aliases: []string{"quantitative analyst", "quant"}, Subjects: []string{"math"}},
		{ID: "virtual_assistant", Name: "Virtual Assistant", Aliases: []string{"virtual assistant"}, Subjects: []string{"english", "business"}, Remote: true, FastPath: true},
		{ID: "bookkeeper", Name: "Bookkeeper", Aliases: []string{"bookkeeper"}, Subjects: []string{"accounting"}, FastPath: true},
		{ID: "electrician", Name: "Electrician", Aliases: []string{"electrician"}, Subjects: []string{"physical_sciences"}, FastPath: true},
		{ID: "sales_representative", Name: "Sales Representative", Aliases: []string{"sales representative", "sales rep"}, Subjects: []string{"business"}, FastPath: true},
		{ID: "real_estate_agent", Name: "Real Estate Agent", Aliases: []string{"real estate agent", "estate agent"}, Subjects: []string{"business"}, FastPath: true},
		{ID: "welder", Name: "Welder", Aliases: []string{"welder"}, FastPath: true},
		{ID: "plumber", Name: "Plumber", Aliases: []string{"plumber"}, FastPath: true},
		{ID: "hairdresser", Name: "Hairdresser", Aliases: []string{"hairdresser", "hair stylist"}, FastPath: true},
		{ID: "chef", Name: "Chef", Aliases: []string{"chef"}, Subjects: []string{"consumer_studies"}, FastPath: true},
		{ID: "motor_mechanic", Name: "Motor Mechanic", Aliases: []string{"motor mechanic", "mechanic"}, Subjects: []string{"physical_sciences"}, FastPath: true},
		{ID: "medical_doctor", Name: "Medical Doctor", Aliases: []string{"medical doctor", "doctor", "physician", "medicine"}, Subjects: []string{"biology", "physical_sciences", "math"}, LongPath: true},
		{ID: "specialist_surgeon", Name: "Specialist Surgeon", Aliases: []string{"specialist surgeon", "surgeon"}, Subjects: []string{"biology", "physical_sciences", "math"}, LongPath: true},
		{ID: "advocate", Name: "Advocate", Aliases: []string{"advocate", "lawyer", "attorney"}, Subjects: []string{"english", "history"}, LongPath: true},
		{ID: "veterinarian", Name: "Veterinarian", Aliases: []string{"veterinarian", "vet"}, Subjects: []string{"biology", "physical_sciences", "math"}, LongPath: true},
		{ID: "pharmacist", Name: "Pharmacist", Aliases: []string{"pharmacist"}, Subjects: []string{"biology", "physical_sciences", "math"}},
		{ID: "biotechnologist", Name: "Biotechnologist", Aliases: []string{"biotechnologist"}, Subjects: []string{"biology", "physical_sciences"}},
		{ID: "environmental_scientist", Name: "Environmental Scientist", Aliases: []string{"environmental scientist"}, Subjects: []string{"biology", "geography"}},
		{ID: "physiotherapist", Name: "Physiotherapist", Aliases: []string{"physiotherapist", "physio"}, Subjects: []string{"biology"}},
		{ID: "nurse", Name: "Professional Nurse", Aliases: []string{"professional nurse", "nurse", "nursing"}, Subjects: []string{"biology"}},
		{ID: "teacher", Name: "Teacher", Aliases: []string{"teacher"}, Subjects: []string{"english"}},
		{ID: "social_worker", Name: "Social Worker", Aliases: []string{"social worker"}},
		{ID: "psychologist", Name: "Psychologist", Aliases: []string{"psychologist"}, Subjects: []string{"biology"}, LongPath: true},
		{ID: "civil_engineer", Name: "Civil Engineer", Aliases: []string{"civil engineer"}, Subjects: []string{"math", "physical_sciences"}},
		{ID: "electrical_engineer", Name: "Electrical Engineer", Aliases: []string{"electrical engineer"}, Subjects: []string{"math", "physical_sciences"}},
		{ID: "mechanical_engineer", Name: "Mechanical Engineer", Aliases: []string{"mechanical engineer"}, Subjects: []string{"math", "physical_sciences"}},
		{ID: "chartered_accountant", Name: "Chartered Accountant", Aliases: []string{"chartered accountant", "accountant"}, Subjects: []string{"math", "accounting"}, LongPath: true},
		{ID: "graphic_designer", Name: "Graphic Designer", Aliases: []string{"graphic designer"}, Subjects: []string{"art"}, Remote: true},
	}
}

func defaultPhraseSets() map[string][]string {
	return map[string][]string{
		SetNoCredential: {
			"without matric", "no matric", "don't have matric", "didn't finish school", "did not finish school",
			"failed matric", "fail matric", "won't pass matric", "without a matric", "not finishing school",
		},
		SetNoHigherEducation: {
			"no university", "without university", "don't want to study", "do not want to study", "skip university",
			"not go to university", "not going to university", "without a degree", "no degree", "don't want a degree",
		},
		SetHighIncome: {
			"high income", "high salary", "lots of money", "a lot of money", "earn a lot", "well paid", "well-paid",
			"rich", "big salary", "good money", "make money",
		},
		SetCreative: {
			"creative", "art", "arts", "drawing", "design", "designing", "music", "painting", "animation", "fashion",
		},
		SetTech: {
			"tech", "technology", "coding", "code", "computer", "computers", "digital", "software", "apps", "gaming",
		},
		SetRemote: {
			"remote", "remotely", "work from home", "from home", "online job", "work online", "anywhere in the world",
			"digital nomad",
		},
		SetFastPace: {
			"fast", "quick", "quickly", "asap", "as soon as possible", "immediately", "right away", "start earning",
			"earn soon", "short course",
		},
		SetScience: {
			"science", "sciences", "biology", "life sciences", "chemistry", "physics", "physical sciences", "lab",
		},
		SetHandsOn: {
			"hands-on", "hands on", "practical", "with my hands", "build things", "fix things", "fixing", "building",
			"outdoors", "outside",
		},
		SetPeople: {
			"help people", "helping people", "work with people", "working with people", "care for", "caring",
			"teaching", "children", "community",
		},
		SetLongSpecialisation: {
			"specialize", "specialise", "specialist", "ten years", "10 years", "years of study", "many years",
			"long training", "residency", "phd", "doctorate",
		},
		SetProfessional: {
			"doctor", "lawyer", "advocate", "engineer", "pharmacist", "chartered accountant", "architect", "surgeon",
		},
		SetFinancialNeed: {
			"funding", "afford", "can't afford", "cannot afford", "no money", "bursary", "bursaries", "nsfas",
			"financial aid", "scholarship", "poor", "low income", "unemployed parents",
		},
	}
}

func defaultCategoryRules() []CategoryRule {
	return []CategoryRule{
		{Category: model.CategoryNoCredential, AnyOf: []string{SetNoCredential}},
		{Category: model.CategoryNoDegreeIncome, AllOf: []string{SetNoHigherEducation, SetHighIncome}},
		{Category: model.CategoryCreativeTech, AllOf: []string{SetCreative, SetTech}},
		{Category: model.CategoryRemoteIncome, AnyOf: []string{SetRemote, SetHighIncome}},
		{Category: model.CategoryFastEarnings, AnyOf: []string{SetFastPace}},
		{Category: model.CategoryScienceBlend, AnyOf: []string{SetScience}},
		{Category: model.CategoryHandsOn, AnyOf: []string{SetHandsOn}},
		{Category: model.CategoryPeopleOriented, AnyOf: []string{SetPeople}},
	}
}

func defaultConflictRules() []ConflictRule {
	return []ConflictRule{
		{
			Name:  "fast_vs_long",
			A:     model.CategoryFastEarnings,
			ASets: []string{SetFastPace},
			B:     model.CategoryLongSpecialisation,
			BSets: []string{SetLongSpecialisation},
		},
		{
			Name:  "remote_vs_hands_on",
			A:     model.CategoryRemoteIncome,
			ASets: []string{SetRemote},
			B:     model.CategoryHandsOn,
			BSets: []string{SetHandsOn},
		},
		{
			Name:  "no_study_vs_professional",
			A:     model.CategoryNoDegreeIncome,
			ASets: []string{SetNoHigherEducation},
			B:     model.CategoryProfessionalDegree,
			BSets: []string{SetProfessional},
		},
	}
}

func defaultCategoryCareers() map[model.Category][]string {
	return map[model.Category][]string{
		model.CategoryNoCredential:       {"welder", "plumber", "hairdresser", "chef", "motor_mechanic"},
		model.CategoryNoDegreeIncome:     {"electrician", "software_developer", "sales_representative", "digital_marketer", "real_estate_agent"},
		model.CategoryCreativeTech:       {"ux_designer", "game_developer", "animator", "graphic_designer", "web_developer"},
		model.CategoryRemoteIncome:       {"software_developer", "ux_designer", "content_writer", "digital_marketer", "data_analyst", "virtual_assistant", "medical_writer"},
		model.CategoryFastEarnings:       {"web_developer", "bookkeeper", "electrician", "virtual_assistant", "sales_representative"},
		model.CategoryScienceBlend:       {"biotechnologist", "pharmacist", "medical_doctor", "environmental_scientist", "physiotherapist"},
		model.CategoryHandsOn:            {"electrician", "motor_mechanic", "plumber", "chef", "civil_engineer"},
		model.CategoryPeopleOriented:     {"teacher", "nurse", "social_worker", "psychologist", "physiotherapist"},
		model.CategoryLongSpecialisation: {"specialist_surgeon", "medical_doctor", "advocate", "veterinarian", "actuarial_scientist"},
		model.CategoryProfessionalDegree: {"medical_doctor", "advocate", "pharmacist", "chartered_accountant", "civil_engineer"},
	}
}

func defaultSubjects() []Subject {
	return []Subject{
		{ID: "math", Name: "Mathematics", Aliases: []string{"mathematics", "maths", "math"}},
		{ID: "math_literacy", Name: "Mathematical Literacy", Aliases: []string{"mathematical literacy", "maths literacy", "maths lit", "math lit"}},
		{ID: "physical_sciences", Name: "Physical Sciences", Aliases: []string{"physical sciences", "physical science", "physics", "chemistry"}, Science: true},
		{ID: "biology", Name: "Life Sciences", Aliases: []string{"life sciences", "life science", "biology", "bio"}, Science: true},
		{ID: "english", Name: "English", Aliases: []string{"english"}},
		{ID: "accounting", Name: "Accounting", Aliases: []string{"accounting"}},
		{ID: "business", Name: "Business Studies", Aliases: []string{"business studies", "business", "economics"}},
		{ID: "information_technology", Name: "Information Technology", Aliases: []string{"information technology", "computer applications technology", "computer science"}},
		{ID: "art", Name: "Visual Arts", Aliases: []string{"visual arts", "art"}},
		{ID: "history", Name: "History", Aliases: []string{"history"}},
		{ID: "geography", Name: "Geography", Aliases: []string{"geography"}},
		{ID: "consumer_studies", Name: "Consumer Studies", Aliases: []string{"consumer studies", "hospitality studies"}},
	}
}

func defaultSubjectExclusions() map[string][]string {
	return map[string][]string{
		"math": {
			"actuarial_scientist", "data_scientist", "data_analyst", "quantitative_analyst",
			"civil_engineer", "electrical_engineer", "mechanical_engineer", "chartered_accountant",
		},
		"physical_sciences": {"civil_engineer", "electrical_engineer", "mechanical_engineer", "pharmacist"},
		"biology":           {"biotechnologist", "specialist_surgeon"},
		"accounting":        {"chartered_accountant", "bookkeeper"},
	}
}

func defaultSubjectCareers() map[string][]string {
	return map[string][]string{
		"biology": {
			"medical_writer", "science_communicator", "nutrition_advisor", "nurse", "physiotherapist",
			"medical_doctor", "pharmacist", "biotechnologist", "environmental_scientist", "veterinarian",
		},
		"art":                    {"ux_designer", "graphic_designer", "animator", "game_developer"},
		"english":                {"content_writer", "medical_writer", "advocate", "teacher", "digital_marketer"},
		"information_technology": {"software_developer", "web_developer", "game_developer", "data_analyst"},
		"business":               {"digital_marketer", "sales_representative", "real_estate_agent", "virtual_assistant"},
		"physical_sciences":      {"electrician", "civil_engineer", "pharmacist", "motor_mechanic"},
		"math":                   {"actuarial_scientist", "data_scientist", "software_developer", "civil_engineer"},
	}
}

func defaultLowPrerequisite() []LowPrerequisiteRule {
	return []LowPrerequisiteRule{
		{Avoid: "math", Want: "biology", Careers: []string{"medical_writer", "science_communicator", "nutrition_advisor"}},
		{Avoid: "math", Want: "information_technology", Careers: []string{"web_developer", "ux_designer"}},
		{Avoid: "math", Want: "business", Careers: []string{"digital_marketer", "sales_representative", "virtual_assistant"}},
		{Avoid: "physical_sciences", Want: "biology", Careers: []string{"nurse", "nutrition_advisor", "science_communicator"}},
		{Avoid: "math", Want: "art", Careers: []string{"graphic_designer", "animator"}},
	}
}

func defaultFrameworks() []Framework {
	return []Framework{
		{Name: "Holland Code", Aliases: []string{"holland code", "riasec"}},
		{Name: "Ikigai", Aliases: []string{"ikigai"}},
		{Name: "SWOT Analysis", Aliases: []string{"swot analysis", "swot"}},
		{Name: "SMART Goals", Aliases: []string{"smart goals", "smart goal"}},
		{Name: "Career Choice Matrix", Aliases: []string{"career choice matrix"}},
		{Name: "Bursary Readiness Checklist", Aliases: []string{"bursary readiness checklist"}},
	}
}

func defaultFundingSources() []FundingSource {
	return []FundingSource{
		{
			Name:     "NSFAS",
			Aliases:  []string{"nsfas", "national student financial aid scheme"},
			Amount:   "full tuition and registration plus allowances, for combined household income up to R350 000 per year",
			Deadline: "applications usually open in November and close at the end of January",
			Notes:    "apply online at nsfas.org.za with ID, parent or guardian IDs and proof of income",
		},
		{
			Name:     "Funza Lushaka Bursary",
			Aliases:  []string{"funza lushaka"},
			Amount:   "tuition, accommodation, meals and a monthly allowance for teaching degrees (roughly R80 000 to R120 000 per year)",
			Deadline: "applications usually close in February of the study year",
			Notes:    "requires a commitment to teach at a public school for the years funded",
		},
		{
			Name:     "ISFAP",
			Aliases:  []string{"isfap", "ikusasa student financial aid programme"},
			Amount:   "tuition, accommodation and living costs for the missing middle (household income R350 000 to R600 000)",
			Deadline: "applications usually close at the end of September for the following year",
			Notes:    "focused on scarce-skills degrees such as health sciences, engineering and accounting",
		},
	}
}

func defaultPromptBlocks() []PromptBlock {
	return []PromptBlock{
		{
			Name:     "subject_aversion",
			Keywords: []string{"hate", "dislike", "bad at", "struggle with", "not good at", "don't like", "failing"},
			Instruction: "The student avoids a subject. Do not silently drop related careers: keep at least one career from the " +
				"field they enjoy visible and state plainly which subject requirement applies (for example 'Note: this " +
				"requires Mathematics at NSC level'). Prefer pathways with lower requirements in the avoided subject, " +
				"and do not recommend careers that depend heavily on it.",
		},
		{
			Name:     "low_income",
			Keywords: []string{"afford", "funding", "no money", "poor", "bursary", "nsfas", "expensive", "fees", "financial"},
			Instruction: "The student has financial need. Name specific funding sources with their amount and application " +
				"deadline (use the funding list below) and mention free or low-cost pathways such as TVET colleges and " +
				"learnerships.",
		},
		{
			Name:     "decision_paralysis",
			Keywords: []string{"confused", "don't know", "can't decide", "cannot decide", "overwhelmed", "so many options", "not sure"},
			Instruction: "The student is overwhelmed by choice. Narrow the options to three, explain the trade-off between " +
				"them in one sentence each, and end with one small first step they can take this week.",
		},
		{
			Name:     "myth_correction",
			Keywords: []string{"only doctors", "doesn't pay", "does not pay", "useless degree", "no jobs", "everyone says", "my parents say"},
			Instruction: "The student repeats a common career myth. Correct it gently with concrete salary ranges and " +
				"demand information, without dismissing the source of the belief.",
		},
		{
			Name:     "creative_career",
			Keywords: []string{"art", "music", "design", "creative", "drawing", "fashion", "animation", "writing"},
			Instruction: "The student has creative interests. Show that creative careers can be viable, give entry salary " +
				"ranges, and describe how to build a portfolio while still at school.",
		},
		{
			Name:     "automation_anxiety",
			Keywords: []string{"ai will", "robots", "automation", "replaced", "replace", "taken by ai", "chatgpt"},
			Instruction: "The student worries about automation. For each career, say which tasks are likely to be " +
				"automated and which human skills stay in demand.",
		},
	}
}
