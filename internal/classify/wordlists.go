package classify

// commonFirstNames are high-frequency given names worldwide. A match here,
// combined with a large-brand company, downgrades NAME+COMPANY identity to
// WEAK because the pair no longer pins a single person.
var commonFirstNames = map[string]bool{
	"james": true, "john": true, "robert": true, "michael": true, "william": true,
	"david": true, "richard": true, "joseph": true, "thomas": true, "charles": true,
	"christopher": true, "daniel": true, "matthew": true, "anthony": true, "mark": true,
	"donald": true, "steven": true, "paul": true, "andrew": true, "joshua": true,
	"kenneth": true, "kevin": true, "brian": true, "george": true, "timothy": true,
	"ronald": true, "jason": true, "edward": true, "jeffrey": true, "ryan": true,
	"jacob": true, "gary": true, "nicholas": true, "eric": true, "jonathan": true,
	"stephen": true, "larry": true, "justin": true, "scott": true, "brandon": true,
	"benjamin": true, "samuel": true, "gregory": true, "alexander": true, "patrick": true,
	"frank": true, "raymond": true, "jack": true, "dennis": true, "jerry": true,
	"tyler": true, "aaron": true, "jose": true, "adam": true, "nathan": true,
	"henry": true, "peter": true, "zachary": true, "kyle": true, "noah": true,
	"mary": true, "patricia": true, "jennifer": true, "linda": true, "elizabeth": true,
	"barbara": true, "susan": true, "jessica": true, "sarah": true, "karen": true,
	"lisa": true, "nancy": true, "betty": true, "sandra": true, "margaret": true,
	"ashley": true, "kimberly": true, "emily": true, "donna": true, "michelle": true,
	"carol": true, "amanda": true, "melissa": true, "deborah": true, "stephanie": true,
	"rebecca": true, "laura": true, "sharon": true, "cynthia": true, "amy": true,
	"kathleen": true, "angela": true, "anna": true, "shirley": true, "ruth": true,
	"maria": true, "ana": true, "wei": true, "li": true, "chen": true,
	"mohammed": true, "ahmed": true, "ali": true, "omar": true, "hassan": true,
	"raj": true, "amit": true, "priya": true, "ravi": true, "sanjay": true,
}

// bigBrands are globally recognizable employers with very large headcounts.
// name-in-commonFirstNames x company-in-bigBrands is the classic
// needle-in-a-haystack case.
var bigBrands = map[string]bool{
	"google": true, "alphabet": true, "microsoft": true, "apple": true,
	"amazon": true, "meta": true, "facebook": true, "netflix": true,
	"ibm": true, "oracle": true, "intel": true, "cisco": true, "salesforce": true,
	"adobe": true, "nvidia": true, "samsung": true, "sony": true, "dell": true,
	"hp": true, "accenture": true, "deloitte": true, "pwc": true, "kpmg": true,
	"ey": true, "mckinsey": true, "goldman sachs": true, "jpmorgan": true,
	"morgan stanley": true, "bank of america": true, "wells fargo": true,
	"citi": true, "citibank": true, "walmart": true, "target": true,
	"tesla": true, "uber": true, "airbnb": true, "twitter": true, "x": true,
	"linkedin": true, "paypal": true, "stripe": true, "shopify": true,
	"tcs": true, "infosys": true, "wipro": true, "cognizant": true,
	"capgemini": true, "siemens": true, "bosch": true, "sap": true,
	"toyota": true, "honda": true, "ford": true, "general motors": true,
	"boeing": true, "airbus": true, "ge": true, "general electric": true,
	"coca-cola": true, "pepsi": true, "pepsico": true, "nike": true,
	"starbucks": true, "mcdonalds": true, "disney": true, "visa": true,
	"mastercard": true, "american express": true, "fedex": true, "ups": true,
	"att": true, "at&t": true, "verizon": true, "t-mobile": true, "vodafone": true,
}

// freeMailDomains are consumer mail providers. An email on one of these
// carries no company signal, so PERSON_EMAIL requires a non-free domain.
var freeMailDomains = map[string]bool{
	"gmail.com": true, "googlemail.com": true, "yahoo.com": true,
	"yahoo.co.uk": true, "yahoo.co.in": true, "ymail.com": true,
	"hotmail.com": true, "hotmail.co.uk": true, "outlook.com": true,
	"live.com": true, "msn.com": true, "aol.com": true, "icloud.com": true,
	"me.com": true, "mac.com": true, "protonmail.com": true, "proton.me": true,
	"zoho.com": true, "mail.com": true, "gmx.com": true, "gmx.de": true,
	"yandex.com": true, "yandex.ru": true, "qq.com": true, "163.com": true,
	"126.com": true, "naver.com": true, "rediffmail.com": true,
	"fastmail.com": true, "hey.com": true, "tutanota.com": true,
}

// legalSuffixes mark a "name" value as company-shaped.
var legalSuffixes = []string{
	"inc", "inc.", "llc", "llc.", "ltd", "ltd.", "corp", "corp.",
	"corporation", "co.", "group", "holdings", "gmbh", "ag", "sa",
	"bv", "nv", "plc", "pvt", "pvt.",
}

// genericCompanyPrefixes flag high-collision company names; a name starting
// with one of these raises ambiguity to HIGH.
var genericCompanyPrefixes = []string{
	"abc", "xyz", "best", "top", "premier", "global", "universal",
	"national", "digital", "tech", "first", "prime", "elite",
}
