package gmail

import "realty-automation/browser"

// Locator chains for the Gmail web UI, most specific first. XPath entries
// stand in for text matches that CSS cannot express.
var (
	composeChain = browser.Chain{
		{Name: "compose-button-text", Selector: `//div[contains(@class,'T-I-KE') and contains(., 'Compose')]`},
		{Name: "compose-gh", Selector: `[gh="cm"]`},
		{Name: "compose-role-button", Selector: `//div[@role='button' and contains(., 'Compose')]`},
		{Name: "compose-class", Selector: `.T-I.T-I-KE.L3`},
		{Name: "compose-any-div", Selector: `//div[contains(text(), 'Compose')]`},
	}

	toChain = browser.Chain{
		{Name: "to-peoplekit", Selector: `input[peoplekit-id="BbVjBd"]`},
		{Name: "to-textarea", Selector: `textarea[name="to"]`},
		{Name: "to-input", Selector: `input[name="to"]`},
		{Name: "to-data-name", Selector: `div[data-name="to"] input`},
	}

	ccButtonChain = browser.Chain{
		{Name: "cc-span-tooltip", Selector: `span[data-tooltip*="Cc"]`},
		{Name: "cc-div-tooltip", Selector: `div[data-tooltip*="Cc"]`},
		{Name: "cc-span-text", Selector: `//span[text()='Cc']`},
		{Name: "cc-div-text", Selector: `//div[text()='Cc']`},
		{Name: "cc-class", Selector: `.aB.gQ.pE`},
	}

	ccInputChain = browser.Chain{
		{Name: "cc-peoplekit", Selector: `input[peoplekit-id="dlgBr"]`},
		{Name: "cc-textarea", Selector: `textarea[name="cc"]`},
		{Name: "cc-input", Selector: `input[name="cc"]`},
		{Name: "cc-data-name", Selector: `div[data-name="cc"] input`},
	}

	subjectChain = browser.Chain{
		{Name: "subject-name", Selector: `input[name="subjectbox"]`},
		{Name: "subject-placeholder", Selector: `input[placeholder*="Subject"]`},
		{Name: "subject-aria", Selector: `input[aria-label*="Subject"]`},
	}

	bodyChain = browser.Chain{
		{Name: "body-textbox", Selector: `div[contenteditable="true"][role="textbox"]`},
		{Name: "body-editable", Selector: `div[contenteditable="true"]`},
		{Name: "body-aria", Selector: `div[aria-label*="Message"]`},
		{Name: "body-class", Selector: `div.Am.Al.editable`},
	}

	sendChain = browser.Chain{
		{Name: "send-tooltip", Selector: `div[data-tooltip*="Send"]`},
		{Name: "send-aria", Selector: `div[aria-label*="Send"]`},
		{Name: "send-button-class", Selector: `//div[contains(@class,'T-I-KE') and contains(., 'Send')]`},
		{Name: "send-button", Selector: `//button[contains(., 'Send')]`},
		{Name: "send-role-button", Selector: `//div[@role='button' and contains(., 'Send')]`},
	}
)
