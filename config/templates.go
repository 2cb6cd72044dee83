package config

// DefaultLeadSubject is the subject line used for lead registration mails.
const DefaultLeadSubject = "Lead Registration for Embassy Green Shore / Embassy Edge| IQOL Technologies"

// DefaultLeadBody is a text/template rendered once per lead with .Name and .Phone.
const DefaultLeadBody = `Hi Team,

Please register the below lead for the project :- 
Embassy Green Shore / Embassy Edge

Name :- {{.Name}}
Contact :- {{.Phone}}

Regards,
Canvas Homes (IQOL Technologies Pvt Ltd)

Agent Name :- Yashwanth.S
Agent's Phone Number :- 9353329893`
