package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/stockscope/core"
)

const extractionPromptTemplate = `You are a vector database expert. Stock data has been indexed into a vector database with the following metadata structure:

metadata: {
    "Analyst Recommendation": "string",
    "Business Summary": "string",
    "City": "string",
    "Country": "string",
    "Industry": "string",
    "Market Cap": "number",
    "Name": "string",
    "PE Ratio": "number",
    "Price": "number",
    "Sector": "string",
    "State": "string",
    "Ticker": "string",
    "Volume": "number"
}

For "Analyst Recommendation", the values can be %s.
For "Sector", the values can be %s.
For "State", the values are the 2-letter codes for the states in the United States.
For "City", the values are the names of cities.
For "Country", the values are the names of countries.

Now given the following user query:

<USER QUERY>
%s
</USER QUERY>

Extract the information from the user query that can be used to filter the vector database by metadata.

Respond with ONLY a JSON object in the following format:

{
    "filter": <a metadata filter using the operators below, or omit this key entirely if nothing in the query can be used as a filter>,
    "question": <the rest of the user query that cannot be used to filter the vector database using metadata. It should be a question that can be used to query the vector database based on embeddings>
}

Example:

{
    "filter": {
        "$and": [
            {"Market Cap": {"$gte": 10000000000}},
            {"Sector": {"$eq": "Technology"}}
        ]
    },
    "question": "companies working on artificial intelligence"
}

For the filter you may only use the following operators:

Filter    Example                                            Description
$eq       {"Sector": {"$eq": "Energy"}}                      Matches entries whose Sector is "Energy".
$ne       {"Sector": {"$ne": "Energy"}}                      Matches entries whose Sector is not "Energy".
$gt       {"Price": {"$gt": 100}}                            Matches entries with Price greater than 100.
$gte      {"Price": {"$gte": 100}}                           Matches entries with Price greater than or equal to 100.
$lt       {"Price": {"$lt": 100}}                            Matches entries with Price less than 100.
$lte      {"Price": {"$lte": 100}}                           Matches entries with Price less than or equal to 100.
$in       {"Sector": {"$in": ["Energy", "Utilities"]}}       Matches entries whose Sector is "Energy" or "Utilities".
$nin      {"Sector": {"$nin": ["Energy", "Utilities"]}}      Matches entries whose Sector is neither "Energy" nor "Utilities".
$exists   {"PE Ratio": {"$exists": true}}                    Matches entries that have a PE Ratio field.

Operator  Example                                                              Description
$and      {"$and": [{"Sector": {"$eq": "Energy"}}, {"Price": {"$gte": 100}}]}  Matches entries satisfying both conditions.
$or       {"$or": [{"Sector": {"$eq": "Energy"}}, {"Price": {"$gte": 100}}]}   Matches entries satisfying either condition.

If you are not sure about a filter field, do not include it in the JSON.

The JSON must parse without errors: no trailing commas, no extra keys, and no text outside the object. Take your time understanding the user query, and if necessary break the problem down into smaller steps.`

// buildExtractionPrompt renders the extraction prompt for one user query, with
// the closed enumerations spelled out from the metadata schema.
func buildExtractionPrompt(userQuery string) string {
	return fmt.Sprintf(extractionPromptTemplate,
		quoteList(core.Recommendations),
		quoteList(core.Sectors),
		userQuery)
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + v + `"`
	}
	return strings.Join(quoted, ", ")
}
