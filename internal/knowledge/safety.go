package knowledge

import "github.com/SeelanGov/thandi/internal/model"

// Safety categories
const (
	SafetyDropout           = "dropout_consideration"
	SafetyNoCredential      = "no_credential_pathway"
	SafetyUnverified        = "unverified_institution"
	SafetyFinancialDecision = "large_financial_decision"
	SafetyLegalEligibility  = "legal_eligibility"
	SafetyMedicalFitness    = "medical_fitness"
	SafetyTimingDeferral    = "timing_deferral"
)

func defaultSafetyTriggers() []model.SafetyTrigger {
	return []model.SafetyTrigger{
		{
			Category: SafetyDropout,
			Patterns: []string{
				`\bdrop(ping)?\s*out\b`,
				`\bquit(ting)?\s+(school|matric)\b`,
				`\bleav(e|ing)\s+school\b`,
				`\bstop(ping)?\s+(school|going to school)\b`,
			},
			Response: "Leaving school before matric is a big decision that is hard to undo, so it should not be made " +
				"on the strength of a chat answer. Please talk it through with your parents or guardians and your " +
				"school's Life Orientation teacher or counsellor before you decide. Many short courses, including " +
				"coding courses, accept students part-time or after matric, and finishing your NSC keeps far more " +
				"doors open, including NSFAS funding and TVET college entry.",
		},
		{
			Category: SafetyNoCredential,
			Patterns: []string{
				`\b(buy|fake|forged?)\s+(a\s+)?(matric|certificate|degree|diploma)\b`,
				`\b(university|varsity|degree|medicine|law)\b.*\bwithout\s+(a\s+)?matric\b`,
				`\bwithout\s+(a\s+)?matric\b.*\b(university|varsity|degree)\b`,
			},
			Response: "Entry requirements for degrees are set by each institution and by national rules, and there " +
				"is no safe shortcut around them. Please check directly with the admissions office of the " +
				"institution you are interested in, or ask your school counsellor about recognised routes such as " +
				"the Higher Certificate or an extended degree programme.",
		},
		{
			Category: SafetyUnverified,
			Patterns: []string{
				`\b(is|are)\b.*\b(college|institution|academy|university|school)\b.*\b(legit|legitimate|accredited|registered|a scam)\b`,
				`\b(unaccredited|unregistered|not accredited|not registered)\b`,
				`\bscam\b`,
			},
			Response: "We cannot confirm whether a specific institution is legitimate. Before paying any fees, check " +
				"the Department of Higher Education and Training register of private higher education institutions " +
				"and the SAQA qualification database, and ask the institution for its registration number.",
		},
		{
			Category: SafetyFinancialDecision,
			Patterns: []string{
				`\b(take|taking|get|getting)\s+(out\s+)?(a\s+)?(personal\s+|student\s+|bank\s+)?loan\b`,
				`\b(spend|use|invest|pay)\s+(all\s+)?(of\s+)?(my|our)\s+(savings|inheritance|pension)\b`,
				`\bsell\s+(our|my|the)\s+(house|car|land|cattle)\b`,
				`\bsign\s+(a|the)\s+(contract|surety)\b`,
			},
			Response: "Decisions involving loans, savings or contracts need advice from someone who can see your " +
				"family's full situation. Please speak to your parents or guardians and, before signing anything, " +
				"to the financial aid office of the institution. Check first whether you qualify for NSFAS or a " +
				"bursary, which do not need to be repaid.",
		},
		{
			Category: SafetyLegalEligibility,
			Patterns: []string{
				`\b(am i|are we|is it)\s+(legally\s+)?(eligible|allowed)\b`,
				`\b(study|work)\s+permit\b`,
				`\bvisa\b`,
				`\bcriminal\s+record\b`,
				`\b(refugee|asylum)\b`,
				`\bwithout\s+(an?\s+)?id\b`,
			},
			Response: "Questions about legal eligibility depend on documents and rules that we cannot check for you. " +
				"Please contact the admissions office of the institution, the Department of Home Affairs, or a " +
				"legal aid clinic, and ask your school counsellor to help you prepare the right questions.",
		},
		{
			Category: SafetyMedicalFitness,
			Patterns: []string{
				`\b(epilepsy|asthma|diabetes|diabetic|disability|disabled|deaf|wheelchair|adhd|chronic illness|heart condition)\b`,
				`\bcolou?r\s*blind\b`,
				`\bmedical(ly)?\s+(condition|fit|fitness|unfit|exam)\b`,
			},
			Response: "Whether a health condition affects a particular career or course is a question for a doctor " +
				"and the institution's disability or student support unit. Many careers have reasonable " +
				"accommodations, so please ask them directly rather than ruling anything out yourself.",
		},
		{
			Category: SafetyTimingDeferral,
			Patterns: []string{
				`\bgap\s+year\b`,
				`\b(defer|deferring|postpone|postponing|delay|delaying)\s+(my\s+)?(studies|studying|university|varsity|college|application|admission|offer)\b`,
				`\btake\s+a\s+year\s+off\b`,
			},
			Response: "Deferring or taking a gap year can affect bursaries, NSFAS applications and university offers, " +
				"and the rules differ by institution. Please check with the admissions office and the funder " +
				"before deciding, and discuss your plan with your parents or guardians and your school counsellor.",
		},
	}
}
