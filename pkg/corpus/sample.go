package corpus

import "log/slog"

type sampleDocument struct {
	text     string
	title    string
	category string
}

// Demonstration corpus used when no curated corpus file exists yet.
var sampleDocuments = []sampleDocument{
	{
		text: "Ouagadougou est la capitale du Burkina Faso. La ville est le centre politique, " +
			"économique et culturel du pays. Elle abrite le Palais de Koulouba, résidence officielle " +
			"du président, et de nombreux musées importants comme le Musée National du Burkina Faso " +
			"qui présente l'histoire et la culture du pays.",
		title:    "Ouagadougou - Capitale du Burkina Faso",
		category: "tourisme",
	},
	{
		text: "Bobo-Dioulasso est la deuxième plus grande ville du Burkina Faso. Connue comme la " +
			"ville des arts et de la culture, elle est un important centre touristique avec ses " +
			"mosquées anciennes, ses marchés colorés et son architecture traditionnelle. La ville " +
			"est aussi un carrefour commercial important.",
		title:    "Bobo-Dioulasso - Ville des Arts",
		category: "tourisme",
	},
	{
		text: "La Cascade de Karfiguéla est l'une des plus belles cascades du Burkina Faso, située " +
			"dans la région de Cascades près de Banfora. Elle offre un paysage spectaculaire avec " +
			"ses chutes d'eau de 60 mètres de hauteur. C'est une destination populaire pour les " +
			"randonneurs et les amateurs de nature.",
		title:    "Cascade de Karfiguéla",
		category: "tourisme",
	},
	{
		text: "Le Parc W est une réserve naturelle transfrontalière partagée par le Burkina Faso, " +
			"le Niger et le Bénin. C'est l'un des plus grands parcs nationaux d'Afrique de l'Ouest, " +
			"riche en faune sauvage incluant des éléphants, des lions et des antilopes. C'est un " +
			"paradis pour les safaris.",
		title:    "Parc W - Réserve Naturelle",
		category: "tourisme",
	},
	{
		text: "Le FESPACO, Festival Panafricain du Cinéma et de la Télévision de Ouagadougou, est " +
			"le plus grand festival de cinéma d'Afrique. Organisé tous les deux ans dans la capitale " +
			"burkinabè, il attire des réalisateurs, des acteurs et des cinéphiles du monde entier.",
		title:    "FESPACO - Festival de Cinéma",
		category: "culture",
	},
	{
		text: "La Fête de la Musique de Dédougou est un événement culturel annuel qui célèbre la " +
			"musique traditionnelle et contemporaine du Burkina Faso. Elle attire des musiciens et " +
			"des visiteurs du monde entier pour découvrir la richesse musicale du pays.",
		title:    "Fête de la Musique de Dédougou",
		category: "culture",
	},
	{
		text: "La cuisine burkinabè est riche et variée. Le tô, pâte de mil ou de maïs servie avec " +
			"une sauce, est le plat national. Le riz gras, le poulet bicyclette et le dolo, bière " +
			"de mil traditionnelle, font partie des spécialités à découvrir lors d'un séjour au " +
			"Burkina Faso.",
		title:    "Cuisine Burkinabè",
		category: "gastronomie",
	},
}

// AddSampleData seeds the store with the demonstration documents.
func (s *Store) AddSampleData() {
	added := 0
	for _, doc := range sampleDocuments {
		if s.Add(doc.text, doc.title, "", doc.category, "manual") {
			added++
		}
	}
	slog.Info("sample documents added", "count", added)
}
