package ai

// ExtractConceptsPrompt extracts layered key concepts from a unit of text.
// Takes the unit text as its single format argument.
const ExtractConceptsPrompt = `
# Task Context
You are an expert at analyzing text and extracting meaningful concepts, with a
special focus on making complex information more understandable. A concept is a
significant term or phrase that represents a fundamental idea, entity, or
phenomenon within a discipline.

# Concept Layers
1. priority - primary theoretical concepts, fundamental principles, key
   terminology, major themes, critical processes central to understanding.
2. secondary - sub-processes and variations of core concepts, related theories,
   component parts, methodological approaches.
3. tertiary - author names and contributions, specific examples and case
   studies, historical context, applications, measurements and quantitative data.

# Detailed Task Description & Rules
- Tag each extracted concept with exactly one layer: priority, secondary or tertiary.
- Ensure comprehensive coverage across all layers.
- Include concepts that answer "what", "how", "why" and "when" about the topic.
- ONLY exclude purely anecdotal details unless they are crucial for defining a concept.
- For each concept report the exact sentence it appeared in and a short
  justification of why it matters.

# Output Formatting
Return a JSON array of objects:
[
  {
    "entity": "main form of the concept",
    "context": "the exact sentence where this concept appeared",
    "evidence": "why this concept is essential for understanding the topic",
    "layer": "priority|secondary|tertiary"
  }
]

# Text
%s
`

// LocalRelationsPrompt extracts relationships between known concepts within a
// single unit of text. Takes the JSON concept list and the unit text as format
// arguments.
const LocalRelationsPrompt = `
# Task Context
You are an expert at identifying meaningful relationships between concepts in a
text. The extracted relations represent connections that contribute to
understanding the main ideas.

# Detailed Task Description & Rules
- Only relate concepts from the provided list.
- Ensure relations are clearly defined and relevant to the text's main ideas.
- Capture a variety of relationship types; do not restrict to fixed categories.
- Avoid speculative relationships; only include those with explicit or strong
  implicit textual support.

# Available Concepts
%s

# Output Formatting
Return a JSON object:
{
  "relations": [
    {
      "source": "source concept",
      "relation_type": "type of relationship",
      "target": "target concept",
      "evidence": "text evidence for this relationship"
    }
  ]
}

# Text
%s
`

// GlobalRelationsPrompt derives whole-document relationships over the complete
// concept set. Takes the JSON concept list as its single format argument.
const GlobalRelationsPrompt = `
# Task Context
You are an expert at identifying high-level connections that span across
sections of a document, providing a comprehensive understanding of how concepts
interrelate on a broader scale.

# Detailed Task Description & Rules
- Identify relationships significant beyond individual sections or paragraphs.
- Include relationships that show how concepts influence each other across
  different contexts or sections.
- Support each relationship with reasoning that highlights its relevance to
  the content as a whole.

# Available Concepts
%s

# Output Formatting
Return a JSON object:
{
  "relations": [
    {
      "source": "source concept",
      "relation_type": "type of relationship",
      "target": "target concept",
      "evidence": "reasoning for this relationship"
    }
  ]
}
`

// CompareConceptsPrompt matches newly extracted concepts against known ones.
// Takes the known-concept JSON list and the candidate JSON list as format
// arguments.
const CompareConceptsPrompt = `
# Task Context
You are an assistant that compares two lists of concepts and identifies which
ones represent EXACTLY the same abstract idea or unit of knowledge. If a
concept in List 2 matches one in List 1, it is a variant of that concept.

# Detailed Task Description & Rules
Match concepts that:
- Refer to exactly the same concept
- Are synonyms or alternative expressions
- Mean the same thing in different contexts

Do NOT match concepts that:
- Are merely related or connected (e.g., "tardigrade anatomy" is not "tardigrade")
- Have a hierarchical relationship
- Represent different aspects of the same topic

# Output Formatting
Return a flat JSON object mapping each List 2 concept to its List 1 match,
omitting concepts with no match:
{
  "water bear": "tardigrade",
  "tardigrade species": "tardigrade"
}

# List 1
%s

# List 2
%s
`
