package geo

// Site is a named coastal location used when fabricating demo data.
type Site struct {
	Name      string
	State     string
	District  string
	Latitude  float64
	Longitude float64
}

var CoastalSites = []Site{
	{Name: "Marina Beach, Chennai", State: "Tamil Nadu", District: "Chennai", Latitude: 13.0500, Longitude: 80.2824},
	{Name: "RK Beach, Visakhapatnam", State: "Andhra Pradesh", District: "Visakhapatnam", Latitude: 17.7144, Longitude: 83.3237},
	{Name: "Puri Beach", State: "Odisha", District: "Puri", Latitude: 19.7983, Longitude: 85.8249},
	{Name: "Fort Kochi", State: "Kerala", District: "Ernakulam", Latitude: 9.9658, Longitude: 76.2421},
	{Name: "Juhu Beach, Mumbai", State: "Maharashtra", District: "Mumbai Suburban", Latitude: 19.0988, Longitude: 72.8267},
	{Name: "Calangute, Goa", State: "Goa", District: "North Goa", Latitude: 15.5439, Longitude: 73.7553},
	{Name: "Panambur, Mangaluru", State: "Karnataka", District: "Dakshina Kannada", Latitude: 12.9390, Longitude: 74.8030},
	{Name: "Digha", State: "West Bengal", District: "Purba Medinipur", Latitude: 21.6266, Longitude: 87.5074},
	{Name: "Port Blair", State: "Andaman and Nicobar Islands", District: "South Andaman", Latitude: 11.6234, Longitude: 92.7265},
	{Name: "Kanyakumari", State: "Tamil Nadu", District: "Kanyakumari", Latitude: 8.0883, Longitude: 77.5385},
}
